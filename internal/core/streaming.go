package core

// streaming.go prepares a source body for the CSV parser without buffering it.
//
//   - The UTF-8 BOM written by Excel and Windows tools is stripped
//   - Invalid UTF-8 is replaced with U+FFFD so encoding/csv never sees it
//   - The body is capped so a misconfigured URL cannot exhaust memory

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxSourceBytes caps a source body when no limit is configured (32MB).
const DefaultMaxSourceBytes = 32 << 20

// ErrSourceTooLarge is returned when a source body exceeds its byte cap.
var ErrSourceTooLarge = errors.New("source file too large")

// limitedReader fails with ErrSourceTooLarge instead of silently truncating
// like io.LimitReader does.
type limitedReader struct {
	r         io.Reader
	remaining int64
	limit     int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, fmt.Errorf("%w: limit %d bytes", ErrSourceTooLarge, l.limit)
	}
	// Read one byte past the limit so an exact-size body is still accepted.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, fmt.Errorf("%w: limit %d bytes", ErrSourceTooLarge, l.limit)
	}
	return n, err
}

// WrapForParsing strips a leading BOM, sanitizes UTF-8 and enforces maxBytes
// (DefaultMaxSourceBytes when maxBytes <= 0).
//
// The order matters: the cap applies to raw bytes off the wire, then the
// decoder sees them.
func WrapForParsing(r io.Reader, maxBytes int64) io.Reader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	capped := &limitedReader{r: r, remaining: maxBytes, limit: maxBytes}
	return transform.NewReader(capped, unicode.UTF8BOM.NewDecoder())
}
