// Package mapview drives an interactive map surface: it renders listing
// features as clustered markers, handles click and hover events, and
// manages the search box geocoding flow.
package mapview

import "github.com/dimas0311/home-price-predictor/geo"

// Identifiers for the source and layers the controller manages on the
// surface. Re-renders remove and re-add these by id.
const (
	SourceListings    = "allData"
	LayerClusters     = "clusters"
	LayerClusterCount = "cluster-count"
	LayerPoints       = "unclustered-point"
)

// Cursor styles set on hover transitions.
const (
	CursorDefault = ""
	CursorPointer = "pointer"
)

// Camera describes a camera move target.
type Camera struct {
	Longitude float64
	Latitude  float64
	Zoom      float64
}

// PopupEntry is one listing summary line inside a popup.
type PopupEntry struct {
	Price   int64
	Address string
	Beds    string
	Baths   string
}

// Popup is an anchored overlay showing one or more listing summaries.
type Popup struct {
	Longitude float64
	Latitude  float64
	Entries   []PopupEntry
}

// Surface is the rendering backend the controller draws on. Implementations
// wrap a concrete map widget; the controller never assumes the surface is
// ready before SurfaceReady has been signalled.
type Surface interface {
	AddSource(id string, data *geo.FeatureCollection)
	RemoveSource(id string)
	AddLayer(id string)
	RemoveLayer(id string)

	EaseTo(camera Camera)
	FlyTo(camera Camera)

	SetCursor(cursor string)

	ShowPopup(popup Popup)
	ClosePopup()
}
