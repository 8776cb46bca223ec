package services

import (
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// Deduper collapses repeated listings that refer to the same property.
type Deduper struct {
	logger *utils.Logger
}

// NewDeduper creates a Deduper with the given logger.
func NewDeduper(logger *utils.Logger) *Deduper {
	return &Deduper{logger: logger.WithPrefix("dedup")}
}

// Dedupe returns the listings with duplicate DedupKeys removed. The first
// listing seen for a key wins and later duplicates are discarded even when
// they carry more complete data, so the same input always produces the
// same output. Input order is preserved. O(n) time and space.
func (d *Deduper) Dedupe(listings []*models.Listing) []*models.Listing {
	seen := make(map[string]struct{}, len(listings))
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		if _, dup := seen[l.DedupKey]; dup {
			d.logger.Debug("Duplicate key skipped: %s", l.DedupKey)
			continue
		}
		seen[l.DedupKey] = struct{}{}
		result = append(result, l)
	}

	if dropped := len(listings) - len(result); dropped > 0 {
		d.logger.Info("Deduplicated %d → %d listings (dropped %d)",
			len(listings), len(result), dropped)
	}
	return result
}
