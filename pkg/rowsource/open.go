package rowsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// OpenOptions are applied to the source picked by Open.
type OpenOptions struct {
	// Timeout bounds HTTP downloads. Zero means no timeout.
	Timeout time.Duration
	// Table is read by SQL sources.
	Table string
	// Sheet is read by workbook sources. Empty selects the first sheet.
	Sheet string
	// Policy confines the accepted sources. Nil accepts every source.
	Policy *Policy
}

// Open resolves a source spec:
//
//	http://..., https://...   CSV download
//	sqlite:<path>             SQLite table, opened read-only
//	postgres://..., postgresql://...
//	                          PostgreSQL table
//	*.xlsx                    workbook
//	anything else             local CSV file
//
// SQL sources own their database handle and implement io.Closer. Sources
// rejected by opts.Policy return ErrSourceNotAllowed.
func Open(ctx context.Context, spec string, opts OpenOptions) (Source, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedSource)
	}
	lower := strings.ToLower(spec)
	pol := opts.Policy

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		if err := pol.checkURL(spec); err != nil {
			return nil, err
		}
		return &CSVURL{URL: spec, Client: newHTTPClient(opts)}, nil

	case strings.HasPrefix(lower, "sqlite:"):
		path, err := pol.resolvePath(sqlitePath(spec[len("sqlite:"):]))
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, DriverSQLite, readOnlyDSN(path), "sqlite", opts)

	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		if err := pol.checkPostgres(spec); err != nil {
			return nil, err
		}
		return openSQL(ctx, DriverPostgres, spec, "postgres", opts)

	case strings.Contains(spec, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, spec)
	}

	path, err := pol.resolvePath(spec)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return &XLSXFile{Path: path, Sheet: opts.Sheet}, nil
	}
	return &CSVFile{Path: path}, nil
}

// newHTTPClient applies the timeout and, with a policy, checks every redirect
// target against it.
func newHTTPClient(opts OpenOptions) *http.Client {
	client := &http.Client{Timeout: opts.Timeout}
	if opts.Policy != nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return opts.Policy.checkURL(req.URL.String())
		}
	}
	return client
}

// sqlitePath strips the URI form of a SQLite spec down to the file path.
// Query parameters are dropped.
func sqlitePath(s string) string {
	s = strings.TrimPrefix(s, "//")
	s = strings.TrimPrefix(s, "file:")
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return s
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// readOnlyDSN builds a SQLite URI that never creates or writes the file.
func readOnlyDSN(path string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=ro"
}

func openSQL(ctx context.Context, driver Driver, dsn, kind string, opts OpenOptions) (Source, error) {
	if opts.Table == "" {
		return nil, fmt.Errorf("%s source needs a table name", kind)
	}
	db, err := OpenDB(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", kind, err)
	}
	return &SQLTable{
		DB:    db,
		Table: opts.Table,
		Name:  kind + ":" + opts.Table,
		owned: true,
	}, nil
}
