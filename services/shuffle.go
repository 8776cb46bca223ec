package services

import (
	"math/rand"

	"github.com/dimas0311/home-price-predictor/models"
)

// Shuffle returns a uniformly random permutation of the listings using the
// Fisher–Yates algorithm. The input slice is left untouched; the display
// view is shuffled so the list UI doesn't show a source-ordered bias.
func Shuffle(rng *rand.Rand, listings []*models.Listing) []*models.Listing {
	shuffled := make([]*models.Listing, len(listings))
	copy(shuffled, listings)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
