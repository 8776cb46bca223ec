package jamesedition

import (
	"context"
	"fmt"

	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// rawListing is the JamesEdition feed's native record shape. Prices and
// areas arrive as decimal strings ("1250000.00").
type rawListing struct {
	HomeURL   string           `json:"home_url"`
	ImageLink string           `json:"image_link"`
	Address   string           `json:"address"`
	Locality  string           `json:"address_locality"`
	Country   string           `json:"address_country"`
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	PriceUSD  feeds.FlexString `json:"price_usd"`
	Beds      feeds.FlexString `json:"beds"`
	Baths     feeds.FlexString `json:"baths"`
	AreaSqft  feeds.FlexString `json:"area_sqft"`
}

// Adapter normalizes the JamesEdition feed. JamesEdition URLs carry no
// numeric identifier, so the dedup key is the final URL path segment
// prefixed with the source name.
//
// Per-source quirk, preserved on purpose: price_usd and area_sqft are
// truncated at the decimal point, not rounded.
type Adapter struct {
	client *feeds.Client
	url    string
	logger *utils.Logger
}

// New creates a ready-to-use JamesEdition Adapter.
func New(client *feeds.Client, url string, logger *utils.Logger) *Adapter {
	return &Adapter{client: client, url: url, logger: logger.WithPrefix("jamesedition")}
}

func (a *Adapter) Name() string { return models.SourceJamesEdition }

// Fetch downloads the feed and returns the normalized listings.
func (a *Adapter) Fetch(ctx context.Context) ([]*models.Listing, error) {
	var raw []rawListing
	if err := a.client.GetJSON(ctx, a.url, &raw); err != nil {
		return nil, fmt.Errorf("jamesedition: %w", err)
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
	key := feeds.SlugKey(models.SourceJamesEdition, r.HomeURL)
	if key == "" {
		return nil
	}

	return &models.Listing{
		DedupKey:  key,
		URL:       r.HomeURL,
		ImageLink: r.ImageLink,
		Address:   r.Address,
		City:      r.Locality,
		Country:   r.Country,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Price:     feeds.TruncateDecimal(r.PriceUSD.String()),
		Beds:      r.Beds.String(),
		Baths:     r.Baths.String(),
		Area:      int(feeds.TruncateDecimal(r.AreaSqft.String())),
		Source:    models.SourceJamesEdition,
	}
}
