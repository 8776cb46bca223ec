// Package geocode implements a thin forward-geocoding client for the
// location search box.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dimas0311/home-price-predictor/utils"
)

// Result is one geocoding suggestion.
type Result struct {
	PlaceName string  `json:"place_name"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type apiResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

// Client queries a Mapbox-shaped places endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  *utils.Logger
}

// NewClient creates a geocoding Client for the given endpoint and access
// token.
func NewClient(baseURL, token string, logger *utils.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
		logger:  logger.WithPrefix("geocode"),
	}
}

// Forward looks up the query and returns up to limit suggestions.
func (c *Client) Forward(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit < 1 {
		limit = 5
	}

	endpoint := fmt.Sprintf("%s/%s.json?access_token=%s&autocomplete=true&limit=%d",
		c.baseURL, url.PathEscape(query), url.QueryEscape(c.token), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: endpoint returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	results := make([]Result, 0, len(payload.Features))
	for _, f := range payload.Features {
		if len(f.Center) != 2 {
			continue
		}
		results = append(results, Result{
			PlaceName: f.PlaceName,
			Longitude: f.Center[0],
			Latitude:  f.Center[1],
		})
	}
	return results, nil
}
