package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/mmcloughlin/geohash"
)

const (
	// extent is the pixel size of the world at zoom 0; the cluster radius
	// is expressed in the same pixel units.
	extent = 512.0
	// geohash precision used for cluster identifiers.
	idPrecision = 12
	maxLatitude = 85.05112878
)

// Marker is one renderable map marker: either an aggregated cluster of
// nearby points or a single unclustered point.
type Marker struct {
	ClusterID  string   `json:"cluster_id,omitempty"`
	Longitude  float64  `json:"longitude"`
	Latitude   float64  `json:"latitude"`
	PointCount int      `json:"point_count"`
	Point      *Feature `json:"point,omitempty"`
}

// IsCluster reports whether the marker aggregates more than one point.
func (m *Marker) IsCluster() bool { return m.PointCount > 1 }

// Index groups point features into clusters on a web-mercator grid. One
// fixed pixel radius applies at every zoom level; the grid cell size in
// world coordinates shrinks as the zoom grows. Cluster identifiers are the
// geohash of the cluster centroid plus the zoom, so rebuilding the index
// from the same data yields the same identifiers.
type Index struct {
	features []Feature
	radius   float64
	leaves   map[string][]Feature
}

// NewIndex creates an Index over the collection's features with the given
// cluster radius in pixels.
func NewIndex(fc *FeatureCollection, radius int) *Index {
	if radius <= 0 {
		radius = 50
	}
	return &Index{
		features: fc.Features,
		radius:   float64(radius),
		leaves:   make(map[string][]Feature),
	}
}

// gridCell accumulates the features that landed in one grid cell.
type gridCell struct {
	sumX, sumY float64
	members    []Feature
}

// ClustersAt groups the indexed features for the given zoom level and
// returns the renderable markers. Cells that end up with a single point
// are returned as unclustered points.
func (idx *Index) ClustersAt(zoom int) []Marker {
	if zoom < 0 {
		zoom = 0
	}

	// Cell size in normalized mercator units: radius px at this zoom.
	cellSize := idx.radius / (extent * math.Pow(2, float64(zoom)))

	cells := make(map[[2]int]*gridCell)
	for _, f := range idx.features {
		x, y := project(f.Geometry.Coordinates[0], f.Geometry.Coordinates[1])
		key := [2]int{int(math.Floor(x / cellSize)), int(math.Floor(y / cellSize))}

		cell, ok := cells[key]
		if !ok {
			cell = &gridCell{}
			cells[key] = cell
		}
		cell.sumX += x
		cell.sumY += y
		cell.members = append(cell.members, f)
	}

	// Deterministic marker order, keyed by grid cell.
	cellKeys := make([][2]int, 0, len(cells))
	for key := range cells {
		cellKeys = append(cellKeys, key)
	}
	sort.Slice(cellKeys, func(i, j int) bool {
		if cellKeys[i][0] != cellKeys[j][0] {
			return cellKeys[i][0] < cellKeys[j][0]
		}
		return cellKeys[i][1] < cellKeys[j][1]
	})

	markers := make([]Marker, 0, len(cells))
	for _, key := range cellKeys {
		cell := cells[key]
		count := len(cell.members)

		if count == 1 {
			point := cell.members[0]
			markers = append(markers, Marker{
				Longitude:  point.Geometry.Coordinates[0],
				Latitude:   point.Geometry.Coordinates[1],
				PointCount: 1,
				Point:      &point,
			})
			continue
		}

		lon, lat := unproject(cell.sumX/float64(count), cell.sumY/float64(count))
		id := clusterID(lat, lon, zoom)
		idx.leaves[id] = cell.members

		markers = append(markers, Marker{
			ClusterID:  id,
			Longitude:  lon,
			Latitude:   lat,
			PointCount: count,
		})
	}

	return markers
}

// Leaves returns up to limit underlying features of the given cluster,
// starting at offset, in the stable order they were indexed in.
func (idx *Index) Leaves(clusterID string, limit, offset int) ([]Feature, error) {
	members, ok := idx.leaves[clusterID]
	if !ok {
		return nil, fmt.Errorf("geo: unknown cluster %q", clusterID)
	}
	if offset < 0 || offset >= len(members) {
		return nil, fmt.Errorf("geo: leaf offset %d out of range for cluster %q", offset, clusterID)
	}

	end := len(members)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return members[offset:end], nil
}

// clusterID derives a stable identifier from the cluster centroid and the
// zoom it was built at.
func clusterID(lat, lon float64, zoom int) string {
	return fmt.Sprintf("%s/z%d", geohash.EncodeWithPrecision(lat, lon, idPrecision), zoom)
}

// project maps lon/lat onto the unit square web-mercator plane.
func project(lon, lat float64) (x, y float64) {
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	latRad := lat * math.Pi / 180

	x = (lon + 180) / 360
	y = 0.5 - math.Log(math.Tan(latRad/2+math.Pi/4))/(2*math.Pi)
	return x, y
}

// unproject maps unit-square coordinates back to lon/lat.
func unproject(x, y float64) (lon, lat float64) {
	lon = x*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
	return lon, lat
}
