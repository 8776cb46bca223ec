package redfin

import (
	"context"
	"fmt"

	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// rawListing is the Redfin feed's native record shape.
type rawListing struct {
	HomeURL       string           `json:"home_url"`
	ImageLink     string           `json:"image_link"`
	StreetAddress string           `json:"street_address"`
	City          string           `json:"city"`
	Country       string           `json:"address_country"`
	Latitude      *float64         `json:"latitude"`
	Longitude     *float64         `json:"longitude"`
	Price         feeds.FlexString `json:"price"`
	Beds          feeds.FlexString `json:"beds"`
	Baths         feeds.FlexString `json:"baths"`
	Area          feeds.FlexString `json:"area"`
}

// Adapter normalizes the Redfin feed. Redfin URLs end in "/home/<digits>",
// so the numeric identifier is the dedup key.
type Adapter struct {
	client *feeds.Client
	url    string
	logger *utils.Logger
}

// New creates a ready-to-use Redfin Adapter.
func New(client *feeds.Client, url string, logger *utils.Logger) *Adapter {
	return &Adapter{client: client, url: url, logger: logger.WithPrefix("redfin")}
}

func (a *Adapter) Name() string { return models.SourceRedfin }

// Fetch downloads the feed and returns the normalized listings. Records
// that cannot be resolved are dropped, not reported as errors.
func (a *Adapter) Fetch(ctx context.Context) ([]*models.Listing, error) {
	var raw []rawListing
	if err := a.client.GetJSON(ctx, a.url, &raw); err != nil {
		return nil, fmt.Errorf("redfin: %w", err)
	}

	listings := make([]*models.Listing, 0, len(raw))
	for _, r := range raw {
		l := normalize(r)
		if l == nil {
			a.logger.Debug("Dropping record without resolvable URL: %q", r.StreetAddress)
			continue
		}
		listings = append(listings, l)
	}

	a.logger.Info("Normalized %d/%d records", len(listings), len(raw))
	return listings, nil
}

// normalize maps one raw record to a canonical listing, or nil to drop it.
func normalize(r rawListing) *models.Listing {
	if r.HomeURL == "" {
		return nil
	}

	key := feeds.HomeIDFromURL(r.HomeURL)
	if key == "" {
		key = feeds.SlugKey(models.SourceRedfin, r.HomeURL)
	}
	if key == "" {
		return nil
	}

	return &models.Listing{
		DedupKey:  key,
		URL:       r.HomeURL,
		ImageLink: r.ImageLink,
		Address:   r.StreetAddress,
		City:      r.City,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Price:     feeds.ParsePrice(r.Price.String()),
		Beds:      r.Beds.String(),
		Baths:     r.Baths.String(),
		Area:      feeds.ParseArea(r.Area.String()),
		Source:    models.SourceRedfin,
	}
}
