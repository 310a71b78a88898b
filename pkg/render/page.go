package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/wbnlp/docmap/pkg/choropleth"
)

const (
	DefaultDivID     = "map"
	DefaultPlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"
)

var divID = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// PageOptions controls the HTML wrapper around a figure.
type PageOptions struct {
	Title     string
	DivID     string
	PlotlyURL string
}

type pageData struct {
	Title     string
	DivID     string
	PlotlyURL string
	CSS       string
	Figure    string
}

// Page renders a standalone HTML document that plots fig and keeps it sized
// to the window. css is inlined as-is when not empty.
func Page(fig *choropleth.Figure, css string, opts PageOptions) (string, error) {
	if fig == nil {
		return "", errors.New("no figure to render")
	}

	data := pageData{
		Title:     opts.Title,
		DivID:     opts.DivID,
		PlotlyURL: opts.PlotlyURL,
		CSS:       strings.ReplaceAll(css, "</", `<\/`),
	}
	if data.Title == "" {
		data.Title = fig.Layout.Title
	}
	if data.DivID == "" {
		data.DivID = DefaultDivID
	}
	if !divID.MatchString(data.DivID) {
		return "", fmt.Errorf("invalid element id %q", data.DivID)
	}
	if data.PlotlyURL == "" {
		data.PlotlyURL = DefaultPlotlyURL
	}

	// json.Marshal escapes <, > and &, so the figure is safe inside <script>.
	raw, err := json.Marshal(fig)
	if err != nil {
		return "", fmt.Errorf("failed to encode figure: %w", err)
	}
	data.Figure = string(raw)

	tmpl, err := template.New("page").Parse(pageTemplateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse page template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute page template: %w", err)
	}
	return buf.String(), nil
}

//go:embed templates/page.html.tmpl
var pageTemplateStr string
