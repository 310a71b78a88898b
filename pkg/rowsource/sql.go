package rowsource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/wbnlp/docmap/pkg/choropleth"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// OpenDB opens and pings a database.
func OpenDB(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
	default:
		return nil, fmt.Errorf("%w: driver %s", ErrUnsupportedSource, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SQLTable reads rows from a table with the CSV column names. Rows arrive in
// the order the database returns them.
type SQLTable struct {
	DB    *sql.DB
	Table string
	Name  string
	owned bool
}

func (s *SQLTable) Rows(ctx context.Context) ([]choropleth.Row, error) {
	if !tableName.MatchString(s.Table) {
		return nil, fmt.Errorf("invalid table name %q", s.Table)
	}

	// #nosec G201 -- table name is validated above
	query := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s",
		ColumnYear, ColumnLocation, ColumnValue, ColumnLabel, s.Table)
	rs, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Table, err)
	}
	defer func() { _ = rs.Close() }()

	var rows []choropleth.Row
	for rs.Next() {
		var r choropleth.Row
		var label sql.NullString
		if err := rs.Scan(&r.Year, &r.Location, &r.Value, &label); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.Table, err)
		}
		if r.Year == "" || r.Location == "" {
			return nil, fmt.Errorf("%s: row %d has an empty %s or %s", s.Table, len(rows)+1, ColumnYear, ColumnLocation)
		}
		r.Label = label.String
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Close releases the database when the source opened it itself.
func (s *SQLTable) Close() error {
	if s.owned && s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *SQLTable) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Table
}
