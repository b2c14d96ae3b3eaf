package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseline(t *testing.T) {
	b := NormalizeBaseline(RawRecord{
		"globalid":       " A1 ",
		"name":           "  Balboa Park  ",
		"latitude":       "32.7341",
		"longitude":      `="-117.1446"`,
		"ada_accessible": "TRUE",
		"fid":            " 17 ",
	})

	assert.Equal(t, "A1", b.GlobalID)
	assert.Equal(t, "Balboa Park", b.Name)
	assert.Equal(t, Coordinate(32.7341), b.Latitude)
	assert.Equal(t, Coordinate(-117.1446), b.Longitude)
	assert.Equal(t, "TRUE", b.ADAAccessible)
	assert.Equal(t, map[string]string{"fid": "17"}, b.Extra)
}

func TestNormalizeBaseline_MalformedNeverFails(t *testing.T) {
	b := NormalizeBaseline(RawRecord{"globalid": "A1", "latitude": "abc"})
	assert.False(t, b.Latitude.Valid())
	assert.False(t, b.Longitude.Valid())
	assert.False(t, b.HasPosition())
	assert.Nil(t, b.Extra)
}

func TestNormalizeUpdate(t *testing.T) {
	u := NormalizeUpdate(RawRecord{
		"place_id":  " A1",
		"action":    "UPDATE",
		"approved":  "yes",
		"timestamp": "2024-01-02",
		"name":      "New Name",
	})

	assert.Equal(t, "A1", u.PlaceID)
	assert.Equal(t, ActionUpdate, u.Action)
	assert.True(t, u.Approved)
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Equal(u.Timestamp))
	assert.Equal(t, "New Name", u.Name)
	assert.Nil(t, u.Extra, "control columns stay out of Extra")
}

func TestNormalizeUpdate_Defaults(t *testing.T) {
	u := NormalizeUpdate(RawRecord{"place_id": "A1"})
	assert.False(t, u.Approved)
	assert.Equal(t, Action(""), u.Action)
	assert.True(t, UnknownTime.Equal(u.Timestamp))
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Run("baseline", func(t *testing.T) {
		first := NormalizeBaseline(RawRecord{
			"globalid":             " A1 ",
			"name":                 " Park ",
			"address":              "1 Main St",
			"latitude":             " 32.7 ",
			"longitude":            "-117.1",
			"restroom_open_status": "Open",
			"baby_changing":        "no",
			"notes":                " ",
			"_extra_1":             "overflow",
		})
		second := NormalizeBaseline(first.Raw())
		assert.Equal(t, first, second)
	})

	t.Run("update", func(t *testing.T) {
		first := NormalizeUpdate(RawRecord{
			"place_id":       "A1",
			"action":         " New ",
			"approved":       "1",
			"timestamp":      "2024-03-15T14:30:00.123Z",
			"latitude":       "32.8",
			"longitude":      "-117.2",
			"gender_neutral": "Yes",
			"surveyor":       "jo",
		})
		second := NormalizeUpdate(first.Raw())
		assert.Equal(t, first, second)
	})

	t.Run("unparseable timestamp is unknown", func(t *testing.T) {
		first := NormalizeUpdate(RawRecord{"place_id": "A1", "timestamp": "soon", "latitude": "1", "longitude": "2"})
		second := NormalizeUpdate(first.Raw())
		assert.True(t, UnknownTime.Equal(second.Timestamp))
		assert.Equal(t, first, second)
	})
}

func TestNormalizeBaselines_PreservesOrder(t *testing.T) {
	rows := []RawRecord{{"globalid": "C"}, {"globalid": "A"}, {"globalid": "B"}}
	out := NormalizeBaselines(rows)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{out[0].GlobalID, out[1].GlobalID, out[2].GlobalID})

	assert.Empty(t, NormalizeUpdates(nil))
}

func TestMissingColumns(t *testing.T) {
	assert.Empty(t, MissingColumns(BaselineFieldSpecs, []string{"globalid", "latitude", "longitude", "name"}))
	assert.Equal(t, []string{"longitude"}, MissingColumns(BaselineFieldSpecs, []string{"globalid", "latitude"}))
	assert.Equal(t, []string{"place_id", "action", "approved", "timestamp", "latitude", "longitude"},
		MissingColumns(UpdateFieldSpecs, nil))
}

func TestLookupField(t *testing.T) {
	spec, ok := LookupField(UpdateFieldSpecs, " Action ")
	require.True(t, ok)
	assert.Equal(t, FieldEnum, spec.Type)
	assert.True(t, spec.UpdateOnly)

	_, ok = LookupField(BaselineFieldSpecs, "place_id")
	assert.False(t, ok)

	assert.True(t, IsKnownColumn(UpdateFieldSpecs, "approved"))
	assert.True(t, IsKnownColumn(BaselineFieldSpecs, "baby_changing"))
	assert.False(t, IsKnownColumn(BaselineFieldSpecs, "fid"))
	assert.False(t, IsKnownColumn(BaselineFieldSpecs, "approved"))
	assert.False(t, IsKnownColumn(UpdateFieldSpecs, "globalid"))
}

func TestNormalize_ControlColumnsArePerSource(t *testing.T) {
	b := NormalizeBaseline(RawRecord{"globalid": "A1", "timestamp": "2020-01-01", "action": "audit", "approved": "yes", "place_id": "legacy-7"})
	assert.Equal(t, map[string]string{
		"timestamp": "2020-01-01",
		"action":    "audit",
		"approved":  "yes",
		"place_id":  "legacy-7",
	}, b.Extra)

	u := NormalizeUpdate(RawRecord{"place_id": "A1", "action": "update", "globalid": "G-1"})
	assert.Equal(t, map[string]string{"globalid": "G-1"}, u.Extra)
}
