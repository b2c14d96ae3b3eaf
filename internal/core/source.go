package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrSourceUnavailable wraps network, HTTP status and file-open failures.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrMalformedSource wraps CSV syntax failures.
var ErrMalformedSource = errors.New("invalid csv")

// extraColumnPrefix names cells that fall past the end of the header row.
const extraColumnPrefix = "_extra_"

// blankColumnPrefix names header cells that are empty.
const blankColumnPrefix = "_column_"

// Table is a parsed delimited-text resource.
type Table struct {
	Header []string    // cleaned, lowercased header names in source order
	Rows   []RawRecord // data rows in source order, blank lines skipped
}

// Source retrieves one tabular resource.
type Source interface {
	Fetch(ctx context.Context) (Table, error)
	Locator() string
}

// NewSource returns an HTTPSource for http(s) locators and a FileSource otherwise.
func NewSource(locator string, client *http.Client, maxBytes int64) Source {
	lower := strings.ToLower(locator)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &HTTPSource{URL: locator, Client: client, MaxBytes: maxBytes}
	}
	return &FileSource{Path: locator, MaxBytes: maxBytes}
}

// HTTPSource fetches a CSV over HTTP, bypassing caches so approvals show up
// on the next load.
type HTTPSource struct {
	URL      string
	Client   *http.Client
	MaxBytes int64
}

// Locator returns the URL.
func (s *HTTPSource) Locator() string { return s.URL }

// Fetch retrieves and parses the resource.
func (s *HTTPSource) Fetch(ctx context.Context) (Table, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Table{}, fmt.Errorf("%w: build request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := client.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Table{}, fmt.Errorf("%w: %s returned HTTP %d", ErrSourceUnavailable, s.URL, resp.StatusCode)
	}

	return ParseTable(WrapForParsing(resp.Body, s.MaxBytes))
}

// FileSource reads a CSV bundled with the deployment.
type FileSource struct {
	Path     string
	MaxBytes int64
}

// Locator returns the file path.
func (s *FileSource) Locator() string { return s.Path }

// Fetch opens and parses the file. ctx is checked before opening only.
func (s *FileSource) Fetch(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return ParseTable(WrapForParsing(f, s.MaxBytes))
}

// ParseTable reads header-first delimited text into ordered records.
//
// Rows shorter than the header map their missing cells to "". Cells past the
// end of the header are kept under "_extra_1", "_extra_2", ... A repeated
// header name is suffixed ("name_2") and a blank header cell becomes
// "_column_N" for its 1-based position, so every cell has a column.
// An empty input yields an empty Table, not an error.
func ParseTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	headerRow, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{Rows: []RawRecord{}}, nil
	}
	if err != nil {
		return Table{}, wrapReadErr(err)
	}

	header := uniqueHeader(headerRow)

	rows := make([]RawRecord, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, wrapReadErr(err)
		}
		if isBlankRow(row) {
			continue
		}
		rows = append(rows, buildRecord(header, row))
	}

	return Table{Header: header, Rows: rows}, nil
}

// uniqueHeader cleans the header row and gives every column a distinct name.
func uniqueHeader(headerRow []string) []string {
	header := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, h := range headerRow {
		name := CleanHeader(h)
		if name == "" {
			name = blankColumnPrefix + strconv.Itoa(i+1)
		}
		if seen[name] {
			base := name
			for n := 2; seen[name]; n++ {
				name = base + "_" + strconv.Itoa(n)
			}
		}
		seen[name] = true
		header[i] = name
	}
	return header
}

func buildRecord(header, row []string) RawRecord {
	rec := make(RawRecord, len(header))
	for i, col := range header {
		if i < len(row) {
			rec[col] = row[i]
		} else {
			rec[col] = ""
		}
	}
	for i := len(header); i < len(row); i++ {
		if strings.TrimSpace(row[i]) == "" {
			continue
		}
		rec[extraColumnPrefix+strconv.Itoa(i-len(header)+1)] = row[i]
	}
	return rec
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// wrapReadErr keeps size-cap errors distinct from syntax errors.
func wrapReadErr(err error) error {
	if errors.Is(err, ErrSourceTooLarge) {
		return err
	}
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("%w: line %d: %v", ErrMalformedSource, perr.Line, perr.Err)
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
