package mapstyle

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/wbnlp/docmap/pkg/colorscale"
)

// ThemeScale names the scale blending the theme's low and high colors.
const ThemeScale = "theme"

// Theme holds the presentation settings of the world map. It has no data
// dependency: the same theme renders the same base stylesheet.
type Theme struct {
	DefaultFillColor        string  `yaml:"default_fill_color"`
	StrokeColor             string  `yaml:"stroke_color"`
	StrokeWidth             float64 `yaml:"stroke_width"`
	MaskStrokeWidth         float64 `yaml:"mask_stroke_width"`
	StrokeDashArray         string  `yaml:"stroke_dash_array"`
	LegendHeaderBackground  string  `yaml:"legend_header_background"`
	LegendContentBackground string  `yaml:"legend_content_background"`
	LegendFontColorHeader   string  `yaml:"legend_font_color_header"`
	LegendFontColorContent  string  `yaml:"legend_font_color_content"`
	LegendBorderColor       string  `yaml:"legend_border_color"`
	LegendBorderRadius      int     `yaml:"legend_border_radius"`
	LegendBoxShadow         bool    `yaml:"legend_box_shadow"`

	// LowColor and HighColor bound the dynamic fill scale. HighColor is also
	// the flat fill when dynamic coloring is off.
	LowColor  string `yaml:"low_color"`
	HighColor string `yaml:"high_color"`

	// SelectorPrefix scopes every rule. Empty means MapSelector.
	SelectorPrefix string `yaml:"selector_prefix"`
}

var selectorPrefix = regexp.MustCompile(`^[A-Za-z0-9_.#:>\[\]="' -]+$`)

func DefaultTheme() Theme {
	return Theme{
		DefaultFillColor:        "#dadada",
		StrokeColor:             "#909090",
		StrokeWidth:             0.5,
		MaskStrokeWidth:         0.5,
		StrokeDashArray:         "4",
		LegendHeaderBackground:  "#ffffff",
		LegendContentBackground: "#dadada",
		LegendFontColorHeader:   "#000000",
		LegendFontColorContent:  "#000000",
		LegendBorderColor:       "#dadada",
		LegendBorderRadius:      3,
		LegendBoxShadow:         true,
		LowColor:                "#c6dbef",
		HighColor:               "#08306b",
		SelectorPrefix:          MapSelector,
	}
}

// LoadTheme reads a YAML theme file. Keys missing from the file keep their
// default value.
func LoadTheme(path string) (Theme, error) {
	t := DefaultTheme()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return t, fmt.Errorf("failed to read theme: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse theme %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("invalid theme %s: %w", path, err)
	}
	return t, nil
}

// Validate checks the colors that feed the dynamic scale.
func (t Theme) Validate() error {
	if _, err := colorful.Hex(t.LowColor); err != nil {
		return fmt.Errorf("low_color %q: %w", t.LowColor, err)
	}
	if _, err := colorful.Hex(t.HighColor); err != nil {
		return fmt.Errorf("high_color %q: %w", t.HighColor, err)
	}
	if t.LegendBorderRadius < 0 {
		return fmt.Errorf("legend_border_radius must not be negative")
	}
	if t.SelectorPrefix != "" && !selectorPrefix.MatchString(t.SelectorPrefix) {
		return fmt.Errorf("selector_prefix %q is not a plain selector", t.SelectorPrefix)
	}
	return nil
}

func (t Theme) selector() string {
	if t.SelectorPrefix == "" {
		return MapSelector
	}
	return t.SelectorPrefix
}

// Scale resolves a scale name. ThemeScale builds the low to high gradient of
// t; any other name must be a built-in scale.
func (t Theme) Scale(name string) (*colorscale.Gradient, error) {
	if name == ThemeScale {
		return colorscale.Between(t.LowColor, t.HighColor)
	}
	return colorscale.Named(name)
}
