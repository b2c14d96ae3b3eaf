package core

// convert.go is the single normalization boundary between CSV text and typed values.
//
// Sheet exports are messy:
//   - Booleans arrive as TRUE/yes/1, or as blank meaning "no opinion"
//   - Coordinates may be blank, text, or Excel formula cells (="32.7")
//   - Timestamps come in whatever format the spreadsheet locale produced
//
// Every coercion here is total: bad input yields a sentinel, never an error.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// UnknownTime is the timestamp assigned to unparseable input. It is the zero
// time, so it loses every recency comparison against a parseable timestamp,
// including dates before 1970.
var UnknownTime = time.Time{}

// timestampLayouts are tried in order; all are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// truthy values, compared after trimming and lowercasing.
var truthy = map[string]bool{"true": true, "yes": true, "1": true}

// CleanCell removes common CSV artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="...") and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// CleanHeader normalizes a header cell for case-insensitive column lookup.
func CleanHeader(s string) string {
	return strings.ToLower(CleanCell(strings.TrimPrefix(s, "\ufeff")))
}

// CleanText trims a text value. An empty result means "not provided".
func CleanText(s string) string {
	return strings.TrimSpace(s)
}

// IsTruthy reports whether s is one of true/yes/1 after trimming and case folding.
// Everything else, including "", is false.
func IsTruthy(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// YesNo renders a boolean-ish value in the canonical storage form.
func YesNo(s string) string {
	if IsTruthy(s) {
		return "Yes"
	}
	return "No"
}

// FormatBool renders b the way the sheet stores booleans.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ParseCoord parses a decimal-degree value. Missing, malformed or non-finite
// input yields NoCoordinate.
func ParseCoord(s string) Coordinate {
	s = CleanCell(s)
	if s == "" {
		return NoCoordinate
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return NoCoordinate
	}
	return Coordinate(f)
}

// ParseTimestamp parses s with best effort. Unparseable or empty input
// returns UnknownTime so that it loses recency comparisons instead of failing.
func ParseTimestamp(s string) time.Time {
	s = CleanCell(s)
	if s == "" {
		return UnknownTime
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	// Unix seconds or milliseconds, as some script endpoints write them.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	return UnknownTime
}

// FormatTimestamp is the inverse of ParseTimestamp for normalized values.
// UnknownTime renders as "" because it stands for "unknown".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseAction normalizes the action discriminator to lowercase.
// Unknown values pass through lowercased so callers can reject them.
func ParseAction(s string) Action {
	return Action(strings.ToLower(CleanText(s)))
}
