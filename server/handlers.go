package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dimas0311/home-price-predictor/geo"
	"github.com/dimas0311/home-price-predictor/geocode"
	"github.com/dimas0311/home-price-predictor/predict"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListings returns the deduplicated, shuffled display view.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	views := s.views(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cycle_id": views.CycleID,
		"listings": views.DisplayListings,
	})
}

// handleAllListings returns the full concatenated view, duplicates
// included.
func (s *Server) handleAllListings(w http.ResponseWriter, r *http.Request) {
	views := s.views(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cycle_id": views.CycleID,
		"listings": views.FullListings,
	})
}

func (s *Server) handleStateAggregates(w http.ResponseWriter, r *http.Request) {
	views := s.views(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cycle_id": views.CycleID,
		"states":   views.StateAggregates,
	})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	views := s.views(r.Context())
	s.respondJSON(w, http.StatusOK, s.insights.FilterOptions(views.DisplayListings))
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	views := s.views(r.Context())
	markets := s.insights.CityMarkets(views.DisplayListings, views.StateAggregates)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"markets": markets})
}

// handleMapFeatures returns the full view as a GeoJSON feature collection.
// The map draws every point, near-duplicates included; only listings
// without coordinates are excluded.
func (s *Server) handleMapFeatures(w http.ResponseWriter, r *http.Request) {
	views := s.views(r.Context())
	s.respondJSON(w, http.StatusOK, geo.ToFeatures(views.FullListings))
}

// handleMapClusters returns the cluster markers for a zoom level. The
// index is rebuilt per request from the current full view, so identical
// data always yields identical markers.
func (s *Server) handleMapClusters(w http.ResponseWriter, r *http.Request) {
	zoom, err := strconv.Atoi(r.URL.Query().Get("zoom"))
	if err != nil || zoom < 0 {
		s.respondError(w, http.StatusBadRequest, "zoom must be a non-negative integer")
		return
	}

	views := s.views(r.Context())
	idx := geo.NewIndex(geo.ToFeatures(views.FullListings), s.clusterRadius)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"zoom":    zoom,
		"markers": idx.ClustersAt(zoom),
	})
}

// handleClusterLeaves expands a cluster into its member features in
// insertion order.
func (s *Server) handleClusterLeaves(w http.ResponseWriter, r *http.Request) {
	clusterID := chi.URLParam(r, "clusterID")
	zoom, err := strconv.Atoi(r.URL.Query().Get("zoom"))
	if err != nil || zoom < 0 {
		s.respondError(w, http.StatusBadRequest, "zoom must be a non-negative integer")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	views := s.views(r.Context())
	idx := geo.NewIndex(geo.ToFeatures(views.FullListings), s.clusterRadius)
	idx.ClustersAt(zoom)

	leaves, err := idx.Leaves(clusterID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"leaves": leaves})
}

// handleConfig exposes the interaction settings the frontend needs to
// bootstrap its map and search box.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cluster_radius":     s.clusterRadius,
		"search_debounce_ms": s.searchDebounceMs,
	})
}

// handleSearch geocodes a free-text query. Lookups are cached per query
// under the same TTL as the feed cycles, so repeated searches for the same
// place don't hit the geocoder, and a geocoder outage serves the last
// known results.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": []geocode.Result{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	key := "geocode:" + strings.ToLower(query) + ":" + strconv.Itoa(limit)
	payload := s.cache.GetOrFetch(key, s.cacheTTL, func() (json.RawMessage, error) {
		results, err := s.geocoder.Forward(r.Context(), query, limit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(results)
	})
	if payload == nil {
		s.logger.Error("Search %q failed with no cached results", query)
		s.respondError(w, http.StatusBadGateway, "geocoding unavailable")
		return
	}

	var results []geocode.Result
	if err := json.Unmarshal(payload, &results); err != nil {
		s.logger.Error("Corrupt cached search results for %q: %v", query, err)
		s.respondError(w, http.StatusInternalServerError, "corrupt search cache")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predict.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := s.predictor.Predict(r.Context(), req)
	if err != nil {
		s.logger.Error("Prediction failed: %v", err)
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   "prediction unavailable",
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"predictedPrice": price,
	})
}
