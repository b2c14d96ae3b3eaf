package core

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"time"
)

// RawRecord is one parsed CSV row keyed by cleaned, lowercased header name.
type RawRecord map[string]string

// Get returns the value for a column, or "" when the column is absent.
func (r RawRecord) Get(col string) string {
	return r[col]
}

// FieldType represents how a column is coerced from text.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldTimestamp
	FieldCoord
	FieldBool
)

// FieldSpec declares one recognized column of the baseline or update sources.
type FieldSpec struct {
	Name       string    // Column header name, lowercase
	Type       FieldType // Coercion applied by the normalizer
	Required   bool      // Column must exist in the source header
	UpdateOnly bool      // Column only exists in the update log
	EnumValues []string  // Valid values for FieldEnum type
}

// Action discriminates what an update record proposes.
type Action string

const (
	ActionNew    Action = "new"
	ActionUpdate Action = "update"
)

// Origin records how an effective record came to be.
type Origin string

const (
	OriginBaseline Origin = "baseline" // baseline row, no approved update
	OriginUpdated  Origin = "updated"  // baseline row with an approved update applied
	OriginNewPoint Origin = "new"      // approved new submission, no baseline row
)

// Coordinate is a decimal-degree value. NaN marks a missing or unparseable value.
type Coordinate float64

// NoCoordinate is the sentinel for a position that could not be parsed.
var NoCoordinate = Coordinate(math.NaN())

// Valid reports whether c is a finite number.
func (c Coordinate) Valid() bool {
	f := float64(c)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String formats c without loss, or "" when invalid.
func (c Coordinate) String() string {
	if !c.Valid() {
		return ""
	}
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

// MarshalJSON encodes invalid coordinates as null since JSON has no NaN.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(c))
}

// UnmarshalJSON accepts a number or null.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = NoCoordinate
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = Coordinate(f)
	return nil
}

// Attributes are the descriptive fields shared by baseline rows, updates and
// effective records. Text and amenity values are trimmed strings where ""
// means "not provided". Columns outside the declared schema land in Extra.
type Attributes struct {
	Name               string            `json:"name"`
	Address            string            `json:"address"`
	Latitude           Coordinate        `json:"latitude"`
	Longitude          Coordinate        `json:"longitude"`
	RestroomOpenStatus string            `json:"restroom_open_status"`
	AdvertisedHours    string            `json:"advertised_hours"`
	ADAAccessible      string            `json:"ada_accessible"`
	GenderNeutral      string            `json:"gender_neutral"`
	BabyChanging       string            `json:"baby_changing"`
	Notes              string            `json:"notes,omitempty"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// clone returns a copy of a that shares no maps with it.
func (a Attributes) clone() Attributes {
	out := a
	if a.Extra != nil {
		out.Extra = maps.Clone(a.Extra)
	}
	return out
}

// HasPosition reports whether both coordinates are finite.
func (a Attributes) HasPosition() bool {
	return a.Latitude.Valid() && a.Longitude.Valid()
}

// BaselineRecord is one row of the static dataset.
type BaselineRecord struct {
	GlobalID string
	Attributes
}

// UpdateRecord is one user-submitted suggestion from the update log.
type UpdateRecord struct {
	PlaceID   string
	Action    Action
	Approved  bool
	Timestamp time.Time // UnknownTime when the source value is unparseable
	Attributes
}

// EffectiveRecord is the merge-resolved view of one subject.
// Key is "" for new points that were submitted without a place id; ID is
// always set once the record is part of a snapshot (see AssignIDs).
type EffectiveRecord struct {
	ID        string     `json:"id"`
	Key       string     `json:"globalid"`
	Origin    Origin     `json:"origin"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Attributes
}

// LoadStats summarizes one load for logging and API metadata.
type LoadStats struct {
	BaselineRows    int `json:"baseline_rows"`
	UpdateRows      int `json:"update_rows"`
	AppliedUpdates  int `json:"applied_updates"`
	NewPoints       int `json:"new_points"`
	Unrenderable    int `json:"unrenderable"`
	RenderableTotal int `json:"renderable_total"`
}

// Snapshot is the effective record set produced by one load.
// It is replaced wholesale on every refresh and never mutated after creation.
type Snapshot struct {
	ID       string            `json:"id"`
	LoadedAt time.Time         `json:"loaded_at"`
	Records  []EffectiveRecord `json:"records"`
	Stats    LoadStats         `json:"stats"`
	Warnings []string          `json:"warnings,omitempty"`
	Stale    bool              `json:"stale"` // served from the snapshot store after a baseline failure

	// InvalidCells counts values normalization discarded, keyed
	// "baseline.latitude", "updates.timestamp" and so on.
	InvalidCells map[string]int `json:"invalid_cells,omitempty"`
}

// Renderable returns the records with a usable position.
func (s *Snapshot) Renderable() []EffectiveRecord {
	if s == nil {
		return []EffectiveRecord{}
	}
	return RenderEligible(s.Records)
}

// RecordID returns ID, or Key for records stored before IDs were assigned.
func (r EffectiveRecord) RecordID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Key
}

// Find returns the record with the given ID. A keyed record's ID is its key.
// IDs are compared after trimming; "" never matches.
func (s *Snapshot) Find(id string) (EffectiveRecord, bool) {
	id = CleanText(id)
	if s == nil || id == "" {
		return EffectiveRecord{}, false
	}
	for _, rec := range s.Records {
		if rec.RecordID() == id {
			return rec, true
		}
	}
	return EffectiveRecord{}, false
}
