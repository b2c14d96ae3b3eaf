package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baselineRows(rows ...RawRecord) []BaselineRecord {
	return NormalizeBaselines(rows)
}

func TestMerge_SimpleOverride(t *testing.T) {
	base := baselineRows(RawRecord{"globalid": "A1", "name": "Old Name", "latitude": "32.7", "longitude": "-117.1"})
	upd := SelectLatestApproved(updateRows(
		RawRecord{"place_id": "A1", "approved": "true", "timestamp": "2024-01-02", "name": "New Name"},
	))

	out := Merge(base, upd)
	require.Len(t, out, 1)
	assert.Equal(t, "A1", out[0].Key)
	assert.Equal(t, "New Name", out[0].Name)
	assert.Equal(t, Coordinate(32.7), out[0].Latitude)
	assert.Equal(t, Coordinate(-117.1), out[0].Longitude)
	assert.Equal(t, OriginUpdated, out[0].Origin)
	require.NotNil(t, out[0].UpdatedAt)
	assert.Equal(t, "2024-01-02T00:00:00Z", FormatTimestamp(*out[0].UpdatedAt))
}

func TestMerge_UnapprovedUpdateIgnored(t *testing.T) {
	base := baselineRows(RawRecord{"globalid": "A1", "name": "Good", "latitude": "32.7", "longitude": "-117.1"})
	upd := SelectLatestApproved(updateRows(RawRecord{"place_id": "A1", "approved": "false", "name": "Bad"}))

	out := Merge(base, upd)
	require.Len(t, out, 1)
	assert.Equal(t, "Good", out[0].Name)
	assert.Equal(t, OriginBaseline, out[0].Origin)
	assert.Nil(t, out[0].UpdatedAt)
}

func TestMerge_Completeness(t *testing.T) {
	base := baselineRows(
		RawRecord{"globalid": "C", "latitude": "1", "longitude": "1"},
		RawRecord{"globalid": "A", "latitude": "abc", "longitude": "1"},
		RawRecord{"globalid": "", "latitude": "2", "longitude": "2"},
		RawRecord{"globalid": "B", "latitude": "3", "longitude": "3"},
	)
	upd := SelectLatestApproved(updateRows(
		RawRecord{"place_id": "B", "approved": "true", "name": "Bee"},
		RawRecord{"place_id": "Z", "approved": "true", "name": "Orphan"},
	))

	out := Merge(base, upd)
	require.Len(t, out, len(base))
	keys := make([]string, len(out))
	for i, rec := range out {
		keys[i] = rec.Key
	}
	assert.Equal(t, []string{"C", "A", "", "B"}, keys)
	assert.Equal(t, "Bee", out[3].Name)
}

func TestMerge_Purity(t *testing.T) {
	base := baselineRows(RawRecord{"globalid": "A1", "name": "Old", "latitude": "32.7", "longitude": "-117.1", "fid": "9"})
	upd := SelectLatestApproved(updateRows(
		RawRecord{"place_id": "A1", "approved": "true", "timestamp": "2024-01-02", "name": "New", "fid": "10", "ada_accessible": "yes"},
	))
	baseBefore := base[0]
	baseExtraBefore := map[string]string{"fid": "9"}
	updBefore := upd["A1"]

	out := Merge(base, upd)
	out[0].Extra["fid"] = "mutated"

	assert.Equal(t, baseBefore.Name, base[0].Name)
	assert.Equal(t, baseExtraBefore, base[0].Extra)
	assert.Equal(t, "", base[0].ADAAccessible)
	assert.Equal(t, updBefore.Name, upd["A1"].Name)
	assert.Equal(t, map[string]string{"fid": "10"}, upd["A1"].Extra)
}

func TestApplyUpdate_OverridePrecedence(t *testing.T) {
	b := NormalizeBaseline(RawRecord{
		"globalid":             "A1",
		"name":                 "Base Name",
		"address":              "1 Base St",
		"latitude":             "32.7",
		"longitude":            "-117.1",
		"restroom_open_status": "Open",
		"advertised_hours":     "9-5",
		"ada_accessible":       "Yes",
		"gender_neutral":       "No",
		"baby_changing":        "true",
		"notes":                "base note",
		"fid":                  "9",
		"district":             "3",
	})

	u := NormalizeUpdate(RawRecord{
		"place_id":             "A1",
		"approved":             "true",
		"timestamp":            "2024-01-02",
		"name":                 "  ",
		"address":              "2 Update Ave",
		"latitude":             "not a number",
		"longitude":            "-117.2",
		"restroom_open_status": "",
		"advertised_hours":     "24h",
		"ada_accessible":       "false",
		"gender_neutral":       "TRUE",
		"baby_changing":        "",
		"notes":                "",
		"fid":                  "10",
		"district":             "  ",
	})

	got := ApplyUpdate(b, u)

	assert.Equal(t, "Base Name", got.Name, "blank update keeps baseline")
	assert.Equal(t, "2 Update Ave", got.Address)
	assert.Equal(t, Coordinate(32.7), got.Latitude, "unparseable update coordinate keeps baseline")
	assert.Equal(t, Coordinate(-117.2), got.Longitude)
	assert.Equal(t, "Open", got.RestroomOpenStatus)
	assert.Equal(t, "24h", got.AdvertisedHours)
	assert.Equal(t, "No", got.ADAAccessible)
	assert.Equal(t, "Yes", got.GenderNeutral)
	assert.Equal(t, "true", got.BabyChanging, "blank flag keeps baseline value as-is")
	assert.Equal(t, "base note", got.Notes)
	assert.Equal(t, map[string]string{"fid": "10", "district": "3"}, got.Extra)
}

func TestApplyUpdate_UnknownTimestampHasNoUpdatedAt(t *testing.T) {
	b := NormalizeBaseline(RawRecord{"globalid": "A1"})
	u := NormalizeUpdate(RawRecord{"place_id": "A1", "approved": "true", "timestamp": "?"})
	assert.Nil(t, ApplyUpdate(b, u).UpdatedAt)
}

func TestExtractNewPoints(t *testing.T) {
	updates := updateRows(
		RawRecord{"place_id": "", "action": "new", "approved": "true", "timestamp": "2024-02-01", "latitude": "32.8", "longitude": "-117.2", "name": "Pop-up"},
		RawRecord{"place_id": "", "action": "new", "approved": "false", "latitude": "32.9", "longitude": "-117.3", "name": "Unapproved"},
		RawRecord{"place_id": "", "action": "new", "approved": "true", "latitude": "", "longitude": "-117.3", "name": "No lat"},
		RawRecord{"place_id": "A1", "action": "update", "approved": "true", "latitude": "1", "longitude": "1"},
		RawRecord{"place_id": " ", "action": "NEW", "approved": "yes", "latitude": "33", "longitude": "-117"},
	)

	got := ExtractNewPoints(updates)
	require.Len(t, got, 2)

	assert.Equal(t, "Pop-up", got[0].Name)
	assert.Equal(t, "", got[0].Key)
	assert.Equal(t, OriginNewPoint, got[0].Origin)
	require.NotNil(t, got[0].UpdatedAt)

	assert.Equal(t, NewSubmissionName, got[1].Name)
	assert.Nil(t, got[1].UpdatedAt)
}

func TestNewPointNeverMerged(t *testing.T) {
	base := baselineRows(RawRecord{"globalid": "A1", "name": "Park", "latitude": "32.7", "longitude": "-117.1"})
	updates := updateRows(
		RawRecord{"place_id": "", "action": "new", "approved": "true", "latitude": "32.8", "longitude": "-117.2", "name": "Pop-up"},
	)

	merged := Merge(base, SelectLatestApproved(updates))
	require.Len(t, merged, 1)
	assert.Equal(t, "Park", merged[0].Name)
	assert.Equal(t, OriginBaseline, merged[0].Origin)

	points := ExtractNewPoints(updates)
	require.Len(t, points, 1)
	assert.Equal(t, "Pop-up", points[0].Name)
}

func TestRenderEligible_MalformedCoordinates(t *testing.T) {
	recs := Merge(baselineRows(
		RawRecord{"globalid": "A1", "latitude": "abc", "longitude": "-117.1"},
		RawRecord{"globalid": "A2", "latitude": "32.7", "longitude": "-117.1"},
	), nil)

	require.Len(t, recs, 2)
	got := RenderEligible(recs)
	require.Len(t, got, 1)
	assert.Equal(t, "A2", got[0].Key)
}

func TestSnapshot_Find(t *testing.T) {
	snap := &Snapshot{Records: []EffectiveRecord{{Key: "A1"}, {Key: ""}, {Key: "A2"}}}

	rec, ok := snap.Find(" A2 ")
	require.True(t, ok)
	assert.Equal(t, "A2", rec.Key)

	_, ok = snap.Find("")
	assert.False(t, ok)

	var nilSnap *Snapshot
	_, ok = nilSnap.Find("A1")
	assert.False(t, ok)
	assert.Empty(t, nilSnap.Renderable())
}

func TestExtractNewPoints_SharedPlaceIDCollapses(t *testing.T) {
	updates := updateRows(
		RawRecord{"place_id": "X9", "action": "new", "approved": "true", "timestamp": "2024-01-01", "latitude": "32.8", "longitude": "-117.2", "name": "Older"},
		RawRecord{"place_id": "", "action": "new", "approved": "true", "latitude": "32.5", "longitude": "-117.5", "name": "Keyless"},
		RawRecord{"place_id": "X9", "action": "new", "approved": "true", "timestamp": "2024-01-03", "latitude": "32.8", "longitude": "-117.2", "name": "Newer"},
		RawRecord{"place_id": "X9", "action": "new", "approved": "true", "timestamp": "2024-01-03", "latitude": "32.8", "longitude": "-117.2", "name": "Tie"},
	)

	got := ExtractNewPoints(updates)
	require.Len(t, got, 2)
	assert.Equal(t, "Newer", got[0].Name, "strictly later timestamp replaces, a tie does not")
	assert.Equal(t, "X9", got[0].Key)
	assert.Equal(t, "Keyless", got[1].Name)
}

func TestWithoutBaselineKeys(t *testing.T) {
	base := baselineRows(RawRecord{"globalid": "A1"}, RawRecord{"globalid": ""})
	points := []EffectiveRecord{{Key: "A1"}, {Key: ""}, {Key: "X9"}}

	got := WithoutBaselineKeys(points, base)
	require.Len(t, got, 2)
	assert.Equal(t, "", got[0].Key)
	assert.Equal(t, "X9", got[1].Key)
}

func TestAssignIDs(t *testing.T) {
	records := []EffectiveRecord{
		{Key: "A1", Origin: OriginBaseline},
		{Key: "", Origin: OriginBaseline},
		{Key: "new-1", Origin: OriginNewPoint},
		{Key: "", Origin: OriginNewPoint},
		{Key: "", Origin: OriginNewPoint},
	}
	AssignIDs(records)

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	assert.Equal(t, []string{"A1", "baseline-1", "new-1", "new-2", "new-3"}, ids)
}

func TestBuildSnapshot_OneRecordPerKey(t *testing.T) {
	snap := BuildSnapshot(
		[]RawRecord{{"globalid": "A1", "name": "Park", "latitude": "32.7", "longitude": "-117.1"}},
		[]RawRecord{
			{"place_id": "A1", "action": "new", "approved": "true", "timestamp": "2024-01-02", "latitude": "32.7", "longitude": "-117.1", "name": "Park Renamed"},
			{"place_id": "X9", "action": "new", "approved": "true", "timestamp": "2024-01-01", "latitude": "32.8", "longitude": "-117.2", "name": "First"},
			{"place_id": "X9", "action": "new", "approved": "true", "timestamp": "2024-01-03", "latitude": "32.8", "longitude": "-117.2", "name": "Latest"},
			{"place_id": "", "action": "new", "approved": "true", "latitude": "32.9", "longitude": "-117.3", "name": "Pop-up"},
		},
	)

	counts := make(map[string]int)
	ids := make(map[string]bool)
	for _, rec := range snap.Records {
		if rec.Key != "" {
			counts[rec.Key]++
		}
		require.NotEmpty(t, rec.ID)
		assert.False(t, ids[rec.ID], "duplicate id %q", rec.ID)
		ids[rec.ID] = true
	}
	assert.Equal(t, map[string]int{"A1": 1, "X9": 1}, counts)
	assert.Equal(t, 2, snap.Stats.NewPoints)

	a1, ok := snap.Find("A1")
	require.True(t, ok)
	assert.Equal(t, "Park Renamed", a1.Name)
	assert.Equal(t, OriginUpdated, a1.Origin)

	x9, ok := snap.Find("X9")
	require.True(t, ok)
	assert.Equal(t, "Latest", x9.Name)

	popup, ok := snap.Find("new-1")
	require.True(t, ok)
	assert.Equal(t, "Pop-up", popup.Name)
	assert.Equal(t, "", popup.Key)
}
