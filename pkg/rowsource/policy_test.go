package rowsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_ResolvePath(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0700))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))

	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	pol := &Policy{Root: root}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"Relative", "counts.csv", filepath.Join(realRoot, "counts.csv"), false},
		{"Nested", "sub/counts.csv", filepath.Join(realRoot, "sub", "counts.csv"), false},
		{"Absolute inside", filepath.Join(root, "counts.csv"), filepath.Join(realRoot, "counts.csv"), false},
		{"Dot segments inside", "sub/../counts.csv", filepath.Join(realRoot, "counts.csv"), false},
		{"Parent", "../counts.csv", "", true},
		{"Absolute outside", filepath.Join(outside, "counts.csv"), "", true},
		{"Symlink out of root", "escape/counts.csv", "", true},
		{"Root prefix sibling", root + "-other/counts.csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pol.resolvePath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSourceNotAllowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_ResolvePath_Disabled(t *testing.T) {
	_, err := (&Policy{}).resolvePath("counts.csv")
	assert.ErrorIs(t, err, ErrSourceNotAllowed)

	var pol *Policy
	got, err := pol.resolvePath("../anything.csv")
	require.NoError(t, err)
	assert.Equal(t, "../anything.csv", got)
}

func TestPolicy_CheckURL(t *testing.T) {
	pol := &Policy{Hosts: []string{"data.example.org", "127.0.0.1:8080"}}

	assert.NoError(t, pol.checkURL("https://data.example.org/counts.csv"))
	assert.NoError(t, pol.checkURL("https://DATA.example.org:8443/counts.csv"))
	assert.NoError(t, pol.checkURL("http://127.0.0.1:8080/counts.csv"))
	assert.ErrorIs(t, pol.checkURL("http://127.0.0.1:9090/counts.csv"), ErrSourceNotAllowed)
	assert.ErrorIs(t, pol.checkURL("http://evil.example/counts.csv"), ErrSourceNotAllowed)
	assert.ErrorIs(t, pol.checkURL("http://data.example.org.evil.example/"), ErrSourceNotAllowed)

	assert.ErrorIs(t, (&Policy{}).checkURL("https://data.example.org/"), ErrSourceNotAllowed)

	var open *Policy
	assert.NoError(t, open.checkURL("http://anywhere.example/"))
}

func TestPolicy_CheckPostgres(t *testing.T) {
	pol := &Policy{Hosts: []string{"db.example.org"}}

	assert.NoError(t, pol.checkPostgres("postgres://user:pw@db.example.org:5432/docs?sslmode=disable"))
	assert.ErrorIs(t, pol.checkPostgres("postgres://db.internal/docs"), ErrSourceNotAllowed)
	assert.ErrorIs(t, pol.checkPostgres("postgres://db.example.org/docs?host=db.internal"), ErrSourceNotAllowed)
	assert.ErrorIs(t, pol.checkPostgres("postgres://db.example.org/docs?hostaddr=10.0.0.1"), ErrSourceNotAllowed)
}

func TestOpen_Policy(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	opts := OpenOptions{Table: "document_counts", Policy: &Policy{Root: root, Hosts: []string{"data.example.org"}}}

	src, err := Open(ctx, "counts.xlsx", opts)
	require.NoError(t, err)
	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, &XLSXFile{Path: filepath.Join(realRoot, "counts.xlsx")}, src)

	_, err = Open(ctx, "https://data.example.org/counts.csv", opts)
	assert.NoError(t, err)

	for _, spec := range []string{
		"../counts.csv",
		"/etc/passwd",
		"http://localhost:6379/",
		"sqlite:/tmp/elsewhere.db",
		"sqlite:file:../x.db?mode=rwc",
		"postgres://localhost/docs",
	} {
		_, err := Open(ctx, spec, opts)
		assert.ErrorIs(t, err, ErrSourceNotAllowed, spec)
	}
}

func TestOpen_SQLiteReadOnly(t *testing.T) {
	ctx := context.Background()
	target := filepath.Join(t.TempDir(), "missing.db")

	_, err := Open(ctx, "sqlite:"+target, OpenOptions{Table: "document_counts"})
	require.Error(t, err)
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "a missing database must not be created")

	path := createSQLiteTable(t)
	src, err := Open(ctx, "sqlite:"+path, OpenOptions{Table: "document_counts"})
	require.NoError(t, err)
	sqlSrc := src.(*SQLTable)
	defer func() { _ = sqlSrc.Close() }()

	_, err = sqlSrc.DB.ExecContext(ctx, `DELETE FROM document_counts`)
	assert.Error(t, err, "the handle must be read-only")
	rows, err := src.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestReadOnlyDSN(t *testing.T) {
	assert.Equal(t, "file:/data/counts.db?mode=ro", readOnlyDSN("/data/counts.db"))
	assert.Equal(t, "file:/data/a%3fb%23c%25.db?mode=ro", readOnlyDSN("/data/a?b#c%.db"))
	assert.Equal(t, "/data/x.db", sqlitePath("//file:/data/x.db?mode=rwc"))
	assert.Equal(t, "counts.db", sqlitePath("counts.db"))
}

func TestOpen_RedirectToUnlistedHost(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer target.Close()

	redirect := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/counts.csv", http.StatusFound)
	}))
	defer redirect.Close()

	allowed := strings.TrimPrefix(redirect.URL, "http://")
	src, err := Open(context.Background(), redirect.URL+"/counts.csv", OpenOptions{Policy: &Policy{Hosts: []string{allowed}}})
	require.NoError(t, err)

	_, err = src.Rows(context.Background())
	assert.ErrorIs(t, err, ErrSourceNotAllowed)

	src, err = Open(context.Background(), redirect.URL+"/counts.csv", OpenOptions{})
	require.NoError(t, err)
	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
