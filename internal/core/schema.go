package core

import "strings"

// Column names shared by the baseline and update sources.
const (
	ColGlobalID           = "globalid"
	ColPlaceID            = "place_id"
	ColAction             = "action"
	ColApproved           = "approved"
	ColTimestamp          = "timestamp"
	ColName               = "name"
	ColAddress            = "address"
	ColLatitude           = "latitude"
	ColLongitude          = "longitude"
	ColRestroomOpenStatus = "restroom_open_status"
	ColAdvertisedHours    = "advertised_hours"
	ColADAAccessible      = "ada_accessible"
	ColGenderNeutral      = "gender_neutral"
	ColBabyChanging       = "baby_changing"
	ColNotes              = "notes"
)

// NewSubmissionName labels a new point submitted without a name.
const NewSubmissionName = "(New submission)"

// AttributeFieldSpecs are the descriptive columns both sources share.
var AttributeFieldSpecs = []FieldSpec{
	{Name: ColName, Type: FieldText},
	{Name: ColAddress, Type: FieldText},
	{Name: ColLatitude, Type: FieldCoord, Required: true},
	{Name: ColLongitude, Type: FieldCoord, Required: true},
	{Name: ColRestroomOpenStatus, Type: FieldText},
	{Name: ColAdvertisedHours, Type: FieldText},
	{Name: ColADAAccessible, Type: FieldBool},
	{Name: ColGenderNeutral, Type: FieldBool},
	{Name: ColBabyChanging, Type: FieldBool},
	{Name: ColNotes, Type: FieldText},
}

// BaselineFieldSpecs declares the baseline dataset columns.
var BaselineFieldSpecs = append([]FieldSpec{
	{Name: ColGlobalID, Type: FieldText, Required: true},
}, AttributeFieldSpecs...)

// UpdateFieldSpecs declares the update log columns.
var UpdateFieldSpecs = append([]FieldSpec{
	{Name: ColPlaceID, Type: FieldText, Required: true, UpdateOnly: true},
	{Name: ColAction, Type: FieldEnum, Required: true, UpdateOnly: true, EnumValues: []string{string(ActionNew), string(ActionUpdate)}},
	{Name: ColApproved, Type: FieldBool, Required: true, UpdateOnly: true},
	{Name: ColTimestamp, Type: FieldTimestamp, Required: true, UpdateOnly: true},
}, AttributeFieldSpecs...)

// LookupField returns the spec for a column in the given schema.
// Column names are matched case-insensitively.
func LookupField(specs []FieldSpec, name string) (FieldSpec, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// IsKnownColumn reports whether name is declared by specs. Anything else
// from that source is kept in Attributes.Extra.
func IsKnownColumn(specs []FieldSpec, name string) bool {
	_, ok := LookupField(specs, name)
	return ok
}

// MissingColumns lists required columns of specs absent from header.
func MissingColumns(specs []FieldSpec, header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, spec := range specs {
		if spec.Required && !present[spec.Name] {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}
