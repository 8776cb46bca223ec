// Package geo converts canonical listings into spatial point features and
// clusters them for the map.
package geo

import "github.com/dimas0311/home-price-predictor/models"

// Geometry is a GeoJSON point geometry; coordinates are [longitude,
// latitude].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Properties carries the per-listing summary fields a map marker or popup
// displays.
type Properties struct {
	Key     string `json:"id"`
	Price   int64  `json:"price"`
	Beds    string `json:"beds,omitempty"`
	Baths   string `json:"baths,omitempty"`
	Address string `json:"address,omitempty"`
}

// Feature is one GeoJSON point feature.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// FeatureCollection is the GeoJSON document handed to the map surface.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// ToFeatures converts listings into a point feature collection. Records
// without both coordinates are excluded from spatial indexing; they can
// still appear in the non-map UI.
func ToFeatures(listings []*models.Listing) *FeatureCollection {
	features := make([]Feature, 0, len(listings))

	for _, l := range listings {
		if !l.HasCoordinates() {
			continue
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{*l.Longitude, *l.Latitude},
			},
			Properties: Properties{
				Key:     l.DedupKey,
				Price:   l.Price,
				Beds:    l.Beds,
				Baths:   l.Baths,
				Address: l.Address,
			},
		})
	}

	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}
