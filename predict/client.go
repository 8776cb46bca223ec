// Package predict calls the external price prediction service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dimas0311/home-price-predictor/utils"
)

// Request holds the listing attributes the model scores.
type Request struct {
	Beds  float64 `json:"beds"`
	Baths float64 `json:"baths"`
	Area  float64 `json:"area"`
	City  string  `json:"city"`
}

type apiResponse struct {
	Success        bool    `json:"success"`
	PredictedPrice float64 `json:"predictedPrice"`
	Error          string  `json:"error"`
}

// Client is a thin HTTP client for the prediction endpoint.
type Client struct {
	http   *http.Client
	url    string
	logger *utils.Logger
}

// NewClient creates a prediction Client for the given endpoint.
func NewClient(url string, logger *utils.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		url:    url,
		logger: logger.WithPrefix("predict"),
	}
}

// Predict scores the request and returns the predicted price in dollars.
func (c *Client) Predict(ctx context.Context, req Request) (float64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("predict: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("predict: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("predict: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("predict: endpoint returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("predict: decode response: %w", err)
	}
	if !payload.Success {
		if payload.Error == "" {
			payload.Error = "prediction failed"
		}
		return 0, fmt.Errorf("predict: %s", payload.Error)
	}

	c.logger.Info("Predicted price %.2f for %s", payload.PredictedPrice, req.City)
	return payload.PredictedPrice, nil
}
