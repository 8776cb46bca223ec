package feeds

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dimas0311/home-price-predictor/models"
)

// Source is the contract every feed adapter satisfies: fetch the feed's raw
// records and map them to canonical listings, dropping anything that cannot
// be resolved. Adapters never fail a whole fetch because of one bad record.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*models.Listing, error)
}

// FlexString unmarshals a JSON value that sources emit inconsistently as
// either a string or a number ("3" vs 3 vs "3 beds").
type FlexString string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = FlexString(num.String())
	return nil
}

// String returns the underlying value trimmed of surrounding whitespace.
func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}
