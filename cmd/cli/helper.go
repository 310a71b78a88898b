package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/briandowns/spinner"

	"github.com/wbnlp/docmap/pkg/choropleth"
	"github.com/wbnlp/docmap/pkg/colorscale"
	"github.com/wbnlp/docmap/pkg/config"
	"github.com/wbnlp/docmap/pkg/logger"
	"github.com/wbnlp/docmap/pkg/mapstyle"
	"github.com/wbnlp/docmap/pkg/rowsource"
)

func setupLogging(w io.Writer, level string) error {
	l, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(logger.New(w, l)))
	return nil
}

// loadRows opens spec with the source settings of cfg and fetches its rows.
// A spinner is shown on stderr unless quiet is set.
func loadRows(ctx context.Context, cfg *config.Config, spec string, quiet bool) ([]choropleth.Row, error) {
	src, err := rowsource.Open(ctx, spec, rowsource.OpenOptions{
		Timeout: cfg.FetchTimeout,
		Table:   cfg.SQLTable,
		Sheet:   cfg.XLSXSheet,
	})
	if err != nil {
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	var s *spinner.Spinner
	if !quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = fmt.Sprintf(" Fetching %s...", src)
		s.Start()
	}

	res := <-rowsource.Fetch(ctx, src)

	if s != nil {
		s.Stop()
	}
	return res.Rows, res.Err
}

// loadStyle resolves the theme and color scale, letting non-empty flag values
// override cfg.
func loadStyle(cfg *config.Config, themeFile, scaleName string) (mapstyle.Theme, colorscale.Scale, error) {
	if themeFile == "" {
		themeFile = cfg.ThemeFile
	}
	if scaleName == "" {
		scaleName = cfg.ColorScale
	}

	theme := mapstyle.DefaultTheme()
	if themeFile != "" {
		t, err := mapstyle.LoadTheme(themeFile)
		if err != nil {
			return theme, nil, err
		}
		theme = t
	}
	scale, err := theme.Scale(scaleName)
	if err != nil {
		return theme, nil, err
	}
	return theme, scale, nil
}

// readValues decodes an ordered entity to value object. "-" reads stdin.
func readValues(path string, stdin io.Reader) (colorscale.Values, error) {
	var r io.Reader = stdin
	if path != "-" {
		// #nosec G304 -- path is supplied by the user on the command line
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open values: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var v colorscale.Values
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse values %s: %w", path, err)
	}
	return v, nil
}

// latestValues returns the entity values of the last year frame.
func latestValues(rows []choropleth.Row, sorted bool) colorscale.Values {
	frames := choropleth.GroupByYear(rows, sorted)
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1].EntityValues()
}

// writeOutput writes content to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(w, content)
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), []byte(content), 0644); err != nil { // #nosec G306 -- generated pages are public
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// parsePosition parses a scale position. Values outside [0,1] are accepted and
// clamped by the scale.
func parsePosition(s string) (float64, error) {
	t, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	if math.IsNaN(t) {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return t, nil
}

func serviceURL(cfg *config.Config) string {
	host := cfg.ServiceHost
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.ServicePort))
}
