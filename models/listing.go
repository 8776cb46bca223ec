package models

// Source tags identifying which feed a listing came from.
const (
	SourceRedfin       = "Redfin"
	SourceJamesEdition = "JamesEdition"
	SourceRealEstate   = "RealEstate"
	SourceLocal        = "Local"
)

// Listing is the canonical record shape every feed is normalized into.
// Two listings with the same DedupKey refer to the same property.
type Listing struct {
	DedupKey  string   `json:"key"`
	URL       string   `json:"home_url"`
	ImageLink string   `json:"image_link,omitempty"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Price     int64    `json:"price"`
	Beds      string   `json:"beds,omitempty"`
	Baths     string   `json:"baths,omitempty"`
	Area      int      `json:"area,omitempty"`
	Source    string   `json:"source"`
}

// HasCoordinates reports whether the listing can appear on the map.
func (l *Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// StateAggregate is one city's market summary, flattened out of the
// nested state→cities structure the state endpoint returns.
type StateAggregate struct {
	State        string `json:"state"`
	City         string `json:"city"`
	Description  string `json:"description"`
	AveragePrice string `json:"average_price"`
	SqftPrice    string `json:"sqft_price"`
}

// FeedViews holds the two listing views plus the state aggregates produced
// by a single fetch cycle. DisplayListings and FullListings always derive
// from the same cycle; CycleID ties them together.
type FeedViews struct {
	CycleID         string           `json:"cycle_id"`
	DisplayListings []*Listing       `json:"display_listings"`
	FullListings    []*Listing       `json:"full_listings"`
	StateAggregates []StateAggregate `json:"state_aggregates"`
}

// FilterOptions are the distinct search values derived from the display
// view, used to populate the list UI's search controls.
type FilterOptions struct {
	Cities   []string `json:"cities"`
	Beds     []string `json:"beds"`
	Baths    []string `json:"baths"`
	MinPrice int64    `json:"min_price"`
	MaxPrice int64    `json:"max_price"`
}
