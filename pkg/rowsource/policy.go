package rowsource

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var ErrSourceNotAllowed = errors.New("source not allowed")

// Policy confines the sources Open accepts. Local files and SQLite databases
// must resolve inside Root; relative paths are taken relative to Root. HTTP
// and PostgreSQL sources must name a host listed in Hosts, either as a bare
// hostname or as host:port. An empty Root disables local sources and empty
// Hosts disable remote ones. A nil *Policy allows everything.
type Policy struct {
	Root  string
	Hosts []string
}

// resolvePath returns the path to open for p.
func (pol *Policy) resolvePath(p string) (string, error) {
	if pol == nil {
		return p, nil
	}
	if pol.Root == "" {
		return "", fmt.Errorf("%w: local sources are disabled", ErrSourceNotAllowed)
	}

	root, err := realPath(pol.Root)
	if err != nil {
		return "", fmt.Errorf("%w: source root %s: %v", ErrSourceNotAllowed, pol.Root, err)
	}
	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target, err = realPath(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceNotAllowed, p, err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrSourceNotAllowed, p, pol.Root)
	}
	return target, nil
}

// realPath cleans p and resolves symlinks of the longest existing prefix, so
// a link inside the root cannot point outside of it.
func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	dir, base := filepath.Split(abs)
	dir = filepath.Clean(dir)
	if dir == abs {
		return abs, nil
	}
	parent, err := realPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}

// checkURL verifies the host of a remote source.
func (pol *Policy) checkURL(raw string) error {
	if pol == nil {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}
	for _, h := range pol.Hosts {
		if strings.EqualFold(h, u.Hostname()) || strings.EqualFold(h, u.Host) {
			return nil
		}
	}
	return fmt.Errorf("%w: host %q is not listed", ErrSourceNotAllowed, u.Host)
}

// checkPostgres verifies a postgres URL. Query parameters that redirect the
// connection to another host are refused.
func (pol *Policy) checkPostgres(raw string) error {
	if pol == nil {
		return nil
	}
	if err := pol.checkURL(raw); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}
	q := u.Query()
	for _, key := range []string{"host", "hostaddr", "service", "servicefile"} {
		if q.Has(key) {
			return fmt.Errorf("%w: postgres parameter %q", ErrSourceNotAllowed, key)
		}
	}
	return nil
}
