package core

// NormalizeBaseline coerces a raw baseline row into a BaselineRecord.
// It never fails: malformed values become their sentinel, unknown columns
// are kept in Extra.
func NormalizeBaseline(raw RawRecord) BaselineRecord {
	return BaselineRecord{
		GlobalID:   CleanText(raw.Get(ColGlobalID)),
		Attributes: normalizeAttributes(raw, BaselineFieldSpecs),
	}
}

// NormalizeUpdate coerces a raw update-log row into an UpdateRecord.
func NormalizeUpdate(raw RawRecord) UpdateRecord {
	return UpdateRecord{
		PlaceID:    CleanText(raw.Get(ColPlaceID)),
		Action:     ParseAction(raw.Get(ColAction)),
		Approved:   IsTruthy(raw.Get(ColApproved)),
		Timestamp:  ParseTimestamp(raw.Get(ColTimestamp)),
		Attributes: normalizeAttributes(raw, UpdateFieldSpecs),
	}
}

// NormalizeBaselines normalizes rows in order.
func NormalizeBaselines(rows []RawRecord) []BaselineRecord {
	out := make([]BaselineRecord, 0, len(rows))
	for _, raw := range rows {
		out = append(out, NormalizeBaseline(raw))
	}
	return out
}

// NormalizeUpdates normalizes rows in order.
func NormalizeUpdates(rows []RawRecord) []UpdateRecord {
	out := make([]UpdateRecord, 0, len(rows))
	for _, raw := range rows {
		out = append(out, NormalizeUpdate(raw))
	}
	return out
}

func normalizeAttributes(raw RawRecord, specs []FieldSpec) Attributes {
	a := Attributes{
		Name:               CleanText(raw.Get(ColName)),
		Address:            CleanText(raw.Get(ColAddress)),
		Latitude:           ParseCoord(raw.Get(ColLatitude)),
		Longitude:          ParseCoord(raw.Get(ColLongitude)),
		RestroomOpenStatus: CleanText(raw.Get(ColRestroomOpenStatus)),
		AdvertisedHours:    CleanText(raw.Get(ColAdvertisedHours)),
		ADAAccessible:      CleanText(raw.Get(ColADAAccessible)),
		GenderNeutral:      CleanText(raw.Get(ColGenderNeutral)),
		BabyChanging:       CleanText(raw.Get(ColBabyChanging)),
		Notes:              CleanText(raw.Get(ColNotes)),
	}

	for col, val := range raw {
		if IsKnownColumn(specs, col) {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]string)
		}
		a.Extra[col] = CleanText(val)
	}
	return a
}

// Raw renders b back into source form. NormalizeBaseline(b.Raw()) equals b.
func (b BaselineRecord) Raw() RawRecord {
	raw := b.Attributes.raw()
	raw[ColGlobalID] = b.GlobalID
	return raw
}

// Raw renders u back into source form. NormalizeUpdate(u.Raw()) equals u.
func (u UpdateRecord) Raw() RawRecord {
	raw := u.Attributes.raw()
	raw[ColPlaceID] = u.PlaceID
	raw[ColAction] = string(u.Action)
	raw[ColApproved] = FormatBool(u.Approved)
	raw[ColTimestamp] = FormatTimestamp(u.Timestamp)
	return raw
}

func (a Attributes) raw() RawRecord {
	raw := RawRecord{
		ColName:               a.Name,
		ColAddress:            a.Address,
		ColLatitude:           a.Latitude.String(),
		ColLongitude:          a.Longitude.String(),
		ColRestroomOpenStatus: a.RestroomOpenStatus,
		ColAdvertisedHours:    a.AdvertisedHours,
		ColADAAccessible:      a.ADAAccessible,
		ColGenderNeutral:      a.GenderNeutral,
		ColBabyChanging:       a.BabyChanging,
		ColNotes:              a.Notes,
	}
	for col, val := range a.Extra {
		raw[col] = val
	}
	return raw
}
