package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/restroom-map/internal/core"
)

// maxSubmitBodySize bounds a submission request body.
const maxSubmitBodySize = 64 << 10

// SnapshotMeta describes the snapshot a response was served from.
type SnapshotMeta struct {
	ID       string         `json:"id"`
	LoadedAt time.Time      `json:"loaded_at"`
	Stale    bool           `json:"stale"`
	Stats    core.LoadStats `json:"stats"`
	Warnings []string       `json:"warnings,omitempty"`
}

func metaOf(snap *core.Snapshot) SnapshotMeta {
	return SnapshotMeta{
		ID:       snap.ID,
		LoadedAt: snap.LoadedAt,
		Stale:    snap.Stale,
		Stats:    snap.Stats,
		Warnings: snap.Warnings,
	}
}

// parseFloatParam reads a finite float query parameter.
func parseFloatParam(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", core.ErrInvalidSubmission, name)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || !core.Coordinate(f).Valid() {
		return 0, fmt.Errorf("%w: invalid %s %q", core.ErrInvalidSubmission, name, raw)
	}
	return f, nil
}

// decodeSubmission reads a JSON submission. Coordinates the client leaves out
// stay missing rather than defaulting to 0,0.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (core.Submission, error) {
	sub := core.Submission{Latitude: core.NoCoordinate, Longitude: core.NoCoordinate}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&sub); err != nil {
		return core.Submission{}, fmt.Errorf("%w: decode body: %v", core.ErrInvalidSubmission, err)
	}
	return sub.Normalize(), nil
}
