package local

import (
	"context"
	"fmt"

	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

type rawListing struct {
	HomeURL   string           `json:"home_url"`
	ImageLink string           `json:"image_link"`
	Address   string           `json:"address"`
	Price     feeds.FlexString `json:"price"`
	Beds      feeds.FlexString `json:"beds"`
	Baths     feeds.FlexString `json:"baths"`
	Area      feeds.FlexString `json:"area"`
}

// Adapter normalizes the locally-scraped home feed. This feed carries no
// coordinates (its records appear in the list UI but never on the map) and
// no explicit city, so the locality is derived from the address string.
type Adapter struct {
	client *feeds.Client
	url    string
	logger *utils.Logger
}

// New creates a ready-to-use local-feed Adapter.
func New(client *feeds.Client, url string, logger *utils.Logger) *Adapter {
	return &Adapter{client: client, url: url, logger: logger.WithPrefix("local")}
}

func (a *Adapter) Name() string { return models.SourceLocal }

// Fetch downloads the feed and returns the normalized listings.
func (a *Adapter) Fetch(ctx context.Context) ([]*models.Listing, error) {
	var raw []rawListing
	if err := a.client.GetJSON(ctx, a.url, &raw); err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}

	listings := make([]*models.Listing, 0, len(raw))
	for _, r := range raw {
		l := normalize(r)
		if l == nil {
			a.logger.Debug("Dropping record without resolvable URL: %q", r.Address)
			continue
		}
		listings = append(listings, l)
	}

	a.logger.Info("Normalized %d/%d records", len(listings), len(raw))
	return listings, nil
}

func normalize(r rawListing) *models.Listing {
	if r.HomeURL == "" {
		return nil
	}

	key := feeds.HomeIDFromURL(r.HomeURL)
	if key == "" {
		key = feeds.SlugKey(models.SourceLocal, r.HomeURL)
	}
	if key == "" {
		return nil
	}

	return &models.Listing{
		DedupKey:  key,
		URL:       r.HomeURL,
		ImageLink: r.ImageLink,
		Address:   r.Address,
		City:      feeds.CityFromAddress(r.Address),
		Price:     feeds.ParsePrice(r.Price.String()),
		Beds:      r.Beds.String(),
		Baths:     r.Baths.String(),
		Area:      feeds.ParseArea(r.Area.String()),
		Source:    models.SourceLocal,
	}
}
