package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/restroom-map/internal/core"
	"github.com/JonMunkholm/restroom-map/internal/logging"
	"github.com/JonMunkholm/restroom-map/internal/web/templates"
)

// PlacesResponse lists the render-eligible records of one snapshot.
type PlacesResponse struct {
	Snapshot SnapshotMeta           `json:"snapshot"`
	Places   []core.EffectiveRecord `json:"places"`
}

// FeatureCollection is a GeoJSON document of point features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON point whose properties are the effective record.
type Feature struct {
	Type       string               `json:"type"`
	ID         string               `json:"id,omitempty"`
	Geometry   Point                `json:"geometry"`
	Properties core.EffectiveRecord `json:"properties"`
}

// Point is a GeoJSON geometry; Coordinates are [longitude, latitude].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// handlePlaces returns the render-eligible records with snapshot metadata.
func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Current()
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, PlacesResponse{
		Snapshot: metaOf(snap),
		Places:   snap.Renderable(),
	})
}

// handlePlacesGeoJSON returns the render-eligible records as a FeatureCollection.
func (s *Server) handlePlacesGeoJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Current()
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	records := snap.Renderable()
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(records))}
	for _, rec := range records {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   rec.RecordID(),
			Geometry: Point{
				Type:        "Point",
				Coordinates: [2]float64{float64(rec.Longitude), float64(rec.Latitude)},
			},
			Properties: rec,
		})
	}

	w.Header().Set("X-Snapshot-ID", snap.ID)
	w.Header().Set("Content-Type", "application/geo+json")
	writeJSON(w, http.StatusOK, fc)
}

// handlePlace returns one effective record by ID (a keyed record's ID is its key).
func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	rec, _, err := s.service.Place(chi.URLParam(r, "placeID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handlePlacePopup renders the marker popup fragment.
func (s *Server) handlePlacePopup(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	rec, _, err := s.service.Place(placeID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Popup(rec).Render(r.Context(), w); err != nil {
		logging.WithFields(r.Context(), "place_id", placeID).Error("render popup", "error", err)
	}
}

// handlePlaceForm returns the suggestion form prefilled from a record.
func (s *Server) handlePlaceForm(w http.ResponseWriter, r *http.Request) {
	rec, _, err := s.service.Place(chi.URLParam(r, "placeID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, core.SubmissionForUpdate(rec))
}

// handleNewForm returns a blank new-point form at ?lat=&lng=.
func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloatParam(r, "lat")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	lng, err := parseFloatParam(r, "lng")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, core.SubmissionForNew(lat, lng))
}
