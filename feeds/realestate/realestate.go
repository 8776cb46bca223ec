package realestate

import (
	"context"
	"fmt"

	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// feedPayload wraps the record array; this source nests its data under a
// "listings" key instead of returning a bare array.
type feedPayload struct {
	Listings []rawListing `json:"listings"`
}

type rawListing struct {
	Key       string           `json:"key"`
	HomeURL   string           `json:"home_url"`
	ImageLink string           `json:"image_link"`
	Address   string           `json:"address"`
	City      string           `json:"city"`
	Country   string           `json:"country"`
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	PriceUSD  feeds.FlexString `json:"price_usd"`
	Beds      feeds.FlexString `json:"beds"`
	Baths     feeds.FlexString `json:"baths"`
	AreaSqft  feeds.FlexString `json:"area_sqft"`
}

// Adapter normalizes the RealEstate feed. The upstream already assigns a
// record key; when it is missing the URL slug is used as a fallback. Beds
// and baths arrive as bare counts and are formatted into the "<n> beds"
// shape the other feeds use.
type Adapter struct {
	client *feeds.Client
	url    string
	logger *utils.Logger
}

// New creates a ready-to-use RealEstate Adapter.
func New(client *feeds.Client, url string, logger *utils.Logger) *Adapter {
	return &Adapter{client: client, url: url, logger: logger.WithPrefix("realestate")}
}

func (a *Adapter) Name() string { return models.SourceRealEstate }

// Fetch downloads the feed and returns the normalized listings.
func (a *Adapter) Fetch(ctx context.Context) ([]*models.Listing, error) {
	var payload feedPayload
	if err := a.client.GetJSON(ctx, a.url, &payload); err != nil {
		return nil, fmt.Errorf("realestate: %w", err)
	}

	listings := make([]*models.Listing, 0, len(payload.Listings))
	for _, r := range payload.Listings {
		l := normalize(r)
		if l == nil {
			a.logger.Debug("Dropping record without resolvable URL: %q", r.Address)
			continue
		}
		listings = append(listings, l)
	}

	a.logger.Info("Normalized %d/%d records", len(listings), len(payload.Listings))
	return listings, nil
}

func normalize(r rawListing) *models.Listing {
	if r.HomeURL == "" {
		return nil
	}

	key := r.Key
	if key == "" {
		key = feeds.SlugKey(models.SourceRealEstate, r.HomeURL)
	}
	if key == "" {
		return nil
	}

	return &models.Listing{
		DedupKey:  key,
		URL:       r.HomeURL,
		ImageLink: r.ImageLink,
		Address:   r.Address,
		City:      r.City,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Price:     feeds.ParsePrice(r.PriceUSD.String()),
		Beds:      formatCount(r.Beds.String(), "beds"),
		Baths:     formatCount(r.Baths.String(), "baths"),
		Area:      feeds.ParseArea(r.AreaSqft.String()),
		Source:    models.SourceRealEstate,
	}
}

// formatCount turns a bare count ("3") into the display shape the other
// feeds already use ("3 beds"). Empty input stays empty.
func formatCount(value, unit string) string {
	if value == "" {
		return ""
	}
	return value + " " + unit
}
