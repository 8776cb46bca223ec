package mapview

import (
	"sync"

	"github.com/dimas0311/home-price-predictor/geo"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// listingZoom is the camera zoom used when centering on a single listing.
const listingZoom = 12

// Controller owns the listing layers on a map Surface. All mutations are
// queued until the surface reports ready, then applied in order; after that
// they run immediately.
type Controller struct {
	surface Surface
	radius  int
	logger  *utils.Logger

	mu        sync.Mutex
	ready     bool
	pending   []func()
	index     *geo.Index
	zoom      int
	markers   []geo.Marker
	rendered  bool
	popupOpen bool
}

// NewController creates a Controller over the given surface. radius is the
// cluster radius in screen pixels.
func NewController(surface Surface, radius int, logger *utils.Logger) *Controller {
	return &Controller{
		surface: surface,
		radius:  radius,
		logger:  logger.WithPrefix("mapview"),
	}
}

// SurfaceReady signals that the surface finished loading. Queued mutations
// are flushed in the order they were requested. Calling it again is a no-op.
func (c *Controller) SurfaceReady() {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return
	}
	c.ready = true
	queued := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.logger.Info("Surface ready, flushing %d queued mutations", len(queued))
	for _, fn := range queued {
		fn()
	}
}

// run executes fn now if the surface is ready, otherwise queues it.
func (c *Controller) run(fn func()) {
	c.mu.Lock()
	if !c.ready {
		c.pending = append(c.pending, fn)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	fn()
}

// SetListings replaces the rendered data set. Listings without coordinates
// are skipped. Re-rendering with the same listings yields the same layers
// and markers.
func (c *Controller) SetListings(listings []*models.Listing) {
	fc := geo.ToFeatures(listings)

	c.run(func() {
		c.mu.Lock()
		c.index = geo.NewIndex(fc, c.radius)
		zoom := c.zoom
		c.mu.Unlock()

		c.render(fc)
		c.refreshMarkers(zoom)
		c.logger.Info("Rendered %d features", len(fc.Features))
	})
}

// render swaps the listing source and layers on the surface. Previous
// layers and source are removed first so repeated renders never stack.
func (c *Controller) render(fc *geo.FeatureCollection) {
	c.mu.Lock()
	rendered := c.rendered
	c.rendered = true
	c.mu.Unlock()

	if rendered {
		c.surface.RemoveLayer(LayerClusters)
		c.surface.RemoveLayer(LayerClusterCount)
		c.surface.RemoveLayer(LayerPoints)
		c.surface.RemoveSource(SourceListings)
	}

	c.surface.AddSource(SourceListings, fc)
	c.surface.AddLayer(LayerClusters)
	c.surface.AddLayer(LayerClusterCount)
	c.surface.AddLayer(LayerPoints)
}

// SetZoom updates the camera zoom and recomputes the visible markers.
func (c *Controller) SetZoom(zoom int) {
	c.run(func() {
		c.mu.Lock()
		c.zoom = zoom
		c.mu.Unlock()
		c.refreshMarkers(zoom)
	})
}

func (c *Controller) refreshMarkers(zoom int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		c.markers = nil
		return
	}
	c.markers = c.index.ClustersAt(zoom)
}

// Markers returns the markers for the current zoom level.
func (c *Controller) Markers() []geo.Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markers
}

// Click handles a click on a marker, dispatching on whether it is a
// cluster or an individual point.
func (c *Controller) Click(marker geo.Marker) {
	c.run(func() {
		if marker.IsCluster() {
			c.clickCluster(marker)
			return
		}
		c.clickPoint(marker)
	})
}

// clickCluster recenters on the cluster and opens a popup listing every
// member in expansion order. If the members cannot be resolved the camera
// still moves but no popup opens.
func (c *Controller) clickCluster(marker geo.Marker) {
	c.surface.EaseTo(Camera{Longitude: marker.Longitude, Latitude: marker.Latitude})

	// Leaves reads state that ClustersAt rebuilds, so it runs under the
	// same lock as refreshMarkers.
	c.mu.Lock()
	if c.index == nil {
		c.mu.Unlock()
		return
	}
	leaves, err := c.index.Leaves(marker.ClusterID, marker.PointCount, 0)
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("Could not expand cluster %s: %v", marker.ClusterID, err)
		return
	}

	entries := make([]PopupEntry, 0, len(leaves))
	for _, leaf := range leaves {
		entries = append(entries, PopupEntry{
			Price:   leaf.Properties.Price,
			Address: leaf.Properties.Address,
			Beds:    leaf.Properties.Beds,
			Baths:   leaf.Properties.Baths,
		})
	}
	c.openPopup(Popup{
		Longitude: marker.Longitude,
		Latitude:  marker.Latitude,
		Entries:   entries,
	})
}

// clickPoint recenters on the listing and opens a single-entry popup.
func (c *Controller) clickPoint(marker geo.Marker) {
	c.surface.EaseTo(Camera{Longitude: marker.Longitude, Latitude: marker.Latitude})

	if marker.Point == nil {
		return
	}
	c.openPopup(Popup{
		Longitude: marker.Longitude,
		Latitude:  marker.Latitude,
		Entries: []PopupEntry{{
			Price:   marker.Point.Properties.Price,
			Address: marker.Point.Properties.Address,
			Beds:    marker.Point.Properties.Beds,
			Baths:   marker.Point.Properties.Baths,
		}},
	})
}

// ShowListing flies the camera to a listing selected outside the map, e.g.
// from the result list, and opens its popup.
func (c *Controller) ShowListing(listing *models.Listing) {
	if listing == nil || !listing.HasCoordinates() {
		return
	}
	c.run(func() {
		c.surface.FlyTo(Camera{
			Longitude: *listing.Longitude,
			Latitude:  *listing.Latitude,
			Zoom:      listingZoom,
		})
		c.openPopup(Popup{
			Longitude: *listing.Longitude,
			Latitude:  *listing.Latitude,
			Entries: []PopupEntry{{
				Price:   listing.Price,
				Address: listing.Address,
				Beds:    listing.Beds,
				Baths:   listing.Baths,
			}},
		})
	})
}

// openPopup shows a popup, closing any popup already open so at most one
// is visible at a time.
func (c *Controller) openPopup(popup Popup) {
	c.mu.Lock()
	wasOpen := c.popupOpen
	c.popupOpen = true
	c.mu.Unlock()

	if wasOpen {
		c.surface.ClosePopup()
	}
	c.surface.ShowPopup(popup)
}

// ClosePopup dismisses the open popup, if any.
func (c *Controller) ClosePopup() {
	c.mu.Lock()
	wasOpen := c.popupOpen
	c.popupOpen = false
	c.mu.Unlock()

	if wasOpen {
		c.surface.ClosePopup()
	}
}

// Hover toggles the pointer cursor when the cursor enters or leaves a
// marker.
func (c *Controller) Hover(entered bool) {
	c.run(func() {
		if entered {
			c.surface.SetCursor(CursorPointer)
			return
		}
		c.surface.SetCursor(CursorDefault)
	})
}
