package web

import (
	"net/http"

	"github.com/JonMunkholm/restroom-map/internal/core"
	"github.com/JonMunkholm/restroom-map/internal/web/templates"
)

// HealthResponse is the /healthz body. Status is "ok" whenever the process
// is serving, even before the first load.
type HealthResponse struct {
	Status      string             `json:"status"`
	Snapshot    *SnapshotMeta      `json:"snapshot,omitempty"`
	Submissions core.LimiterStatus `json:"submissions"`
	Clients     int                `json:"ws_clients"`
}

// handleIndex renders the map page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.MapPage(s.mapView()).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

func (s *Server) mapView() templates.MapView {
	m := s.cfg.Map
	return templates.MapView{
		Center:      templates.LatLng{Lat: m.CenterLat, Lng: m.CenterLng},
		Zoom:        m.Zoom,
		TileURL:     m.TileURL,
		Attribution: m.Attribution,
	}
}

// handleHealth reports liveness plus snapshot and submission state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Submissions: s.service.SubmitLimiterStatus(),
	}
	if snap, err := s.service.Current(); err == nil {
		meta := metaOf(snap)
		resp.Snapshot = &meta
	}
	if s.hub != nil {
		resp.Clients = s.hub.Stats().Clients
	}
	writeJSON(w, http.StatusOK, resp)
}
