package core

// validation.go reports cells that normalization had to discard.
//
// The merge never rejects a row: an unparseable coordinate becomes
// NoCoordinate and an unparseable timestamp becomes UnknownTime. Validation runs
// alongside so each load can say how many values were lost and where, which
// is usually the first sign of a sheet edited by hand.

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ValidationError describes one cell that could not be coerced.
type ValidationError struct {
	Field   string // Column name
	Value   string // The rejected value
	Message string // Human-readable reason
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateCell checks one value against its FieldSpec. Empty values are
// always valid; they mean "not provided".
func ValidateCell(value string, spec FieldSpec) error {
	value = CleanCell(value)
	if value == "" {
		return nil
	}

	switch spec.Type {
	case FieldCoord:
		if !ParseCoord(value).Valid() {
			return fmt.Errorf("invalid coordinate")
		}
	case FieldTimestamp:
		if ParseTimestamp(value).Equal(UnknownTime) {
			return fmt.Errorf("unrecognized date-time")
		}
	case FieldEnum:
		for _, ev := range spec.EnumValues {
			if strings.EqualFold(ev, value) {
				return nil
			}
		}
		return fmt.Errorf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))
	}
	return nil
}

// ValidateRecord returns every coercion problem in raw, in spec order.
func ValidateRecord(raw RawRecord, specs []FieldSpec) []ValidationError {
	var errs []ValidationError
	for _, spec := range specs {
		v, ok := raw[spec.Name]
		if !ok {
			continue
		}
		if err := ValidateCell(v, spec); err != nil {
			errs = append(errs, ValidationError{
				Field:   spec.Name,
				Value:   CleanCell(v),
				Message: err.Error(),
			})
		}
	}
	return errs
}

// ValidateRows counts invalid cells per column across rows. Keys are
// "<label>.<column>"; the result is nil when every cell is valid.
func ValidateRows(label string, rows []RawRecord, specs []FieldSpec) map[string]int {
	var counts map[string]int
	for _, raw := range rows {
		for _, e := range ValidateRecord(raw, specs) {
			if counts == nil {
				counts = make(map[string]int)
			}
			counts[label+"."+e.Field]++
		}
	}
	return counts
}

// mergeCounts adds src into dst, allocating dst when needed.
func mergeCounts(dst, src map[string]int) map[string]int {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]int, len(src))
	}
	for k, n := range src {
		dst[k] += n
	}
	return dst
}

// summarizeCounts renders counts as "a=1, b=2" in key order for logs.
func summarizeCounts(counts map[string]int) string {
	keys := slices.Sorted(maps.Keys(counts))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
