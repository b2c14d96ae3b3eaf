package web

import (
	"net/http"

	"github.com/JonMunkholm/restroom-map/internal/core"
	"github.com/JonMunkholm/restroom-map/internal/logging"
)

// SubmitErrorResponse echoes the submission back so the client can keep
// the form contents after a failure.
type SubmitErrorResponse struct {
	ErrorResponse
	Submission core.Submission `json:"submission"`
}

// handleSubmit validates a suggestion and forwards it to the ingestion endpoint.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := sub.Validate(); err != nil {
		s.respondSubmitError(w, r, sub, err)
		return
	}

	res, err := s.service.Submit(WithRequestMetadata(r.Context(), r), sub)
	if err != nil {
		s.respondSubmitError(w, r, sub, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) respondSubmitError(w http.ResponseWriter, r *http.Request, sub core.Submission, err error) {
	status := statusFor(err)
	msg := core.MapError(err)
	logError(r, err, status, msg.Code)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, SubmitErrorResponse{
		ErrorResponse: newErrorResponse(msg),
		Submission:    sub,
	})
}

// handleRefresh reloads both sources now and reports the resulting snapshot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Load(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(r.Context()).Info("manual refresh",
		"snapshot_id", snap.ID,
		"stale", snap.Stale,
	)
	writeJSON(w, http.StatusOK, metaOf(snap))
}
