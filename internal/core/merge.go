package core

import (
	"strconv"
	"time"
)

// Merge joins baseline rows with the selected updates and returns exactly one
// effective record per baseline row, in baseline order.
//
// Neither input is modified. Rows whose globalid has no update pass through
// with OriginBaseline.
func Merge(baseline []BaselineRecord, updates map[string]UpdateRecord) []EffectiveRecord {
	out := make([]EffectiveRecord, 0, len(baseline))
	for _, b := range baseline {
		if u, ok := updates[CleanText(b.GlobalID)]; ok {
			out = append(out, ApplyUpdate(b, u))
			continue
		}
		out = append(out, FromBaseline(b))
	}
	return out
}

// FromBaseline wraps a baseline row as an effective record.
func FromBaseline(b BaselineRecord) EffectiveRecord {
	return EffectiveRecord{
		Key:        CleanText(b.GlobalID),
		Origin:     OriginBaseline,
		Attributes: b.Attributes.clone(),
	}
}

// ApplyUpdate overrides b field by field with u:
//   - text fields take the update value when it is non-empty after trimming
//   - coordinates take the update value only when it is finite
//   - amenity flags take the update when non-empty, written as Yes/No
//   - non-empty columns outside the schema are copied into Extra, replacing
//     a baseline column of the same name
func ApplyUpdate(b BaselineRecord, u UpdateRecord) EffectiveRecord {
	out := FromBaseline(b)
	out.Origin = OriginUpdated
	if !u.Timestamp.Equal(UnknownTime) {
		ts := u.Timestamp
		out.UpdatedAt = &ts
	}

	a := &out.Attributes
	setText(&a.Name, u.Name)
	setText(&a.Address, u.Address)
	setText(&a.RestroomOpenStatus, u.RestroomOpenStatus)
	setText(&a.AdvertisedHours, u.AdvertisedHours)
	setText(&a.Notes, u.Notes)

	if u.Latitude.Valid() {
		a.Latitude = u.Latitude
	}
	if u.Longitude.Valid() {
		a.Longitude = u.Longitude
	}

	setFlag(&a.ADAAccessible, u.ADAAccessible)
	setFlag(&a.GenderNeutral, u.GenderNeutral)
	setFlag(&a.BabyChanging, u.BabyChanging)

	for col, val := range u.Extra {
		val = CleanText(val)
		if val == "" {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]string)
		}
		a.Extra[col] = val
	}

	return out
}

func setText(dst *string, val string) {
	if v := CleanText(val); v != "" {
		*dst = v
	}
}

func setFlag(dst *string, val string) {
	if CleanText(val) != "" {
		*dst = YesNo(val)
	}
}

// ExtractNewPoints returns approved action=new updates with a usable position
// as standalone effective records, in update-log order. The key is the
// record's own place id, which is usually blank.
//
// Keyless points are all kept. Points sharing a place id collapse into one,
// held at the position of the first: a later point replaces it only when its
// timestamp is strictly greater, the same rule SelectLatestApproved applies.
func ExtractNewPoints(updates []UpdateRecord) []EffectiveRecord {
	out := make([]EffectiveRecord, 0)
	pos := make(map[string]int)
	stamps := make(map[string]time.Time)
	for _, u := range updates {
		if !u.Approved || u.Action != ActionNew || !u.HasPosition() {
			continue
		}
		rec := newPoint(u)
		if rec.Key == "" {
			out = append(out, rec)
			continue
		}
		if i, ok := pos[rec.Key]; ok {
			if u.Timestamp.After(stamps[rec.Key]) {
				out[i] = rec
				stamps[rec.Key] = u.Timestamp
			}
			continue
		}
		pos[rec.Key] = len(out)
		stamps[rec.Key] = u.Timestamp
		out = append(out, rec)
	}
	return out
}

// WithoutBaselineKeys drops new points whose key names a baseline row. Such
// a row is already an update of that place and Merge has applied it.
func WithoutBaselineKeys(points []EffectiveRecord, baseline []BaselineRecord) []EffectiveRecord {
	known := make(map[string]bool, len(baseline))
	for _, b := range baseline {
		if key := CleanText(b.GlobalID); key != "" {
			known[key] = true
		}
	}
	out := make([]EffectiveRecord, 0, len(points))
	for _, p := range points {
		if p.Key != "" && known[p.Key] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AssignIDs sets the snapshot-unique ID of every record: its key when it has
// one, otherwise "<origin>-<n>" counted per origin in record order. Generated
// IDs skip any value already used as a key.
func AssignIDs(records []EffectiveRecord) {
	taken := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Key != "" {
			taken[rec.Key] = true
		}
	}

	counters := make(map[Origin]int)
	for i := range records {
		if records[i].Key != "" {
			records[i].ID = records[i].Key
			continue
		}
		origin := records[i].Origin
		for {
			counters[origin]++
			id := string(origin) + "-" + strconv.Itoa(counters[origin])
			if !taken[id] {
				taken[id] = true
				records[i].ID = id
				break
			}
		}
	}
}

func newPoint(u UpdateRecord) EffectiveRecord {
	rec := EffectiveRecord{
		Key:        CleanText(u.PlaceID),
		Origin:     OriginNewPoint,
		Attributes: u.Attributes.clone(),
	}
	if rec.Name == "" {
		rec.Name = NewSubmissionName
	}
	if !u.Timestamp.Equal(UnknownTime) {
		ts := u.Timestamp
		rec.UpdatedAt = &ts
	}
	return rec
}

// RenderEligible keeps records whose latitude and longitude are both finite.
func RenderEligible(records []EffectiveRecord) []EffectiveRecord {
	out := make([]EffectiveRecord, 0, len(records))
	for _, rec := range records {
		if rec.HasPosition() {
			out = append(out, rec)
		}
	}
	return out
}
