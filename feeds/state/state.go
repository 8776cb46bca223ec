package state

import (
	"context"
	"fmt"
	"sort"

	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// The state endpoint returns a mapping from state name to its description
// and per-city price aggregates.
type rawState struct {
	Description string    `json:"state_description"`
	Cities      []rawCity `json:"cities"`
}

type rawCity struct {
	City            string           `json:"city"`
	AvgListPrice    feeds.FlexString `json:"avg_list_price"`
	AvgPricePerSqft feeds.FlexString `json:"avg_price_per_sqft"`
}

// Adapter flattens the nested state→cities structure into one
// StateAggregate per city. The aggregates are loaded once per fetch cycle
// and are read-only afterwards.
type Adapter struct {
	client *feeds.Client
	url    string
	logger *utils.Logger
}

// New creates a ready-to-use state-aggregate Adapter.
func New(client *feeds.Client, url string, logger *utils.Logger) *Adapter {
	return &Adapter{client: client, url: url, logger: logger.WithPrefix("state")}
}

// Fetch downloads the state data and returns the flattened aggregates,
// ordered by state then city so repeated fetches of the same payload are
// byte-identical.
func (a *Adapter) Fetch(ctx context.Context) ([]models.StateAggregate, error) {
	var raw map[string]rawState
	if err := a.client.GetJSON(ctx, a.url, &raw); err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}

	states := make([]string, 0, len(raw))
	for name := range raw {
		states = append(states, name)
	}
	sort.Strings(states)

	var aggregates []models.StateAggregate
	for _, name := range states {
		info := raw[name]
		for _, city := range info.Cities {
			aggregates = append(aggregates, models.StateAggregate{
				State:        name,
				City:         city.City,
				Description:  info.Description,
				AveragePrice: city.AvgListPrice.String(),
				SqftPrice:    city.AvgPricePerSqft.String(),
			})
		}
	}

	a.logger.Info("Flattened %d states into %d city aggregates", len(raw), len(aggregates))
	return aggregates, nil
}
