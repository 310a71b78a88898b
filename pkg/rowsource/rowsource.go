package rowsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wbnlp/docmap/pkg/choropleth"
)

// Column names of the document count table.
const (
	ColumnYear     = "year"
	ColumnLocation = "iso_alpha"
	ColumnValue    = "popularity"
	ColumnLabel    = "country"
)

var (
	ErrMissingColumn     = errors.New("missing column")
	ErrUnsupportedSource = errors.New("unsupported source")
)

// Source yields validated rows.
type Source interface {
	Rows(ctx context.Context) ([]choropleth.Row, error)
	String() string
}

// Result is the outcome of an asynchronous fetch.
type Result struct {
	Rows []choropleth.Row
	Err  error
}

// Fetch loads s in the background. The channel receives exactly one Result
// and is then closed. No retries are attempted.
func Fetch(ctx context.Context, s Source) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		start := time.Now()
		rows, err := s.Rows(ctx)
		if err != nil {
			slog.Warn("Failed to fetch rows", "source", s.String(), "error", err)
		} else {
			slog.Debug("Fetched rows", "source", s.String(), "rows", len(rows), "duration", time.Since(start))
		}
		ch <- Result{Rows: rows, Err: err}
	}()
	return ch
}

type columns struct {
	year, location, value, label int
}

func findColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	var c columns
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{ColumnYear, &c.year},
		{ColumnLocation, &c.location},
		{ColumnValue, &c.value},
		{ColumnLabel, &c.label},
	} {
		i, ok := idx[col.name]
		if !ok {
			return c, fmt.Errorf("%w: %s", ErrMissingColumn, col.name)
		}
		*col.dst = i
	}
	return c, nil
}

func cell(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

// fromRecords validates a header row followed by data rows. Blank records are
// skipped.
func fromRecords(records [][]string) ([]choropleth.Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnYear)
	}
	cols, err := findColumns(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]choropleth.Row, 0, len(records)-1)
	for n, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		recNo := n + 2

		year := cell(rec, cols.year)
		if year == "" {
			return nil, fmt.Errorf("record %d: empty %s", recNo, ColumnYear)
		}
		loc := cell(rec, cols.location)
		if loc == "" {
			return nil, fmt.Errorf("record %d: empty %s", recNo, ColumnLocation)
		}
		raw := cell(rec, cols.value)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid %s %q: %w", recNo, ColumnValue, raw, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("record %d: %s %q is not a finite number", recNo, ColumnValue, raw)
		}

		rows = append(rows, choropleth.Row{
			Year:     year,
			Location: loc,
			Value:    v,
			Label:    cell(rec, cols.label),
		})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseCSV reads a delimited table with a header row. Column order is free.
func ParseCSV(r io.Reader) ([]choropleth.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return fromRecords(records)
}

// CSVFile reads rows from a local file.
type CSVFile struct {
	Path string
}

func (s *CSVFile) Rows(_ context.Context) ([]choropleth.Row, error) {
	f, err := os.Open(filepath.Clean(s.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return rows, nil
}

func (s *CSVFile) String() string { return s.Path }

// CSVURL downloads rows over HTTP.
type CSVURL struct {
	URL    string
	Client *http.Client
}

func (s *CSVURL) Rows(ctx context.Context) ([]choropleth.Row, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: %s", s.URL, resp.Status)
	}

	rows, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.URL, err)
	}
	return rows, nil
}

func (s *CSVURL) String() string { return s.URL }
