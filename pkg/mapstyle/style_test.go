package mapstyle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbnlp/docmap/pkg/colorscale"
)

func testScale(t *testing.T) *colorscale.Gradient {
	t.Helper()
	g, err := colorscale.Between("#000000", "#ffffff")
	require.NoError(t, err)
	return g
}

func TestBuildDynamicRules(t *testing.T) {
	values := colorscale.Values{{Key: "USA", Value: "10"}, {Key: "unknown", Value: "999"}, {Key: "FRA", Value: "20"}}

	rules := BuildDynamicRules(values, testScale(t), "#ff0000", true)
	require.Len(t, rules, 2)
	assert.Equal(t, Rule{Key: "USA", Color: "#000000"}, rules[0])
	assert.Equal(t, "FRA", rules[1].Key)

	for _, r := range rules {
		assert.NotEqual(t, colorscale.UnknownKey, r.Key)
	}
}

func TestBuildDynamicRules_Disabled(t *testing.T) {
	values := colorscale.Values{{Key: "USA", Value: "10"}, {Key: "FRA", Value: "No Data"}, {Key: "DEU", Value: "20"}}

	rules := BuildDynamicRules(values, testScale(t), "#ff0000", false)
	require.Len(t, rules, 3)
	for _, r := range rules {
		assert.Equal(t, "#ff0000", r.Color)
	}
}

func TestBuildDynamicRules_Sentinel(t *testing.T) {
	values := colorscale.Values{{Key: "USA", Value: "No Data"}}

	rules := BuildDynamicRules(values, testScale(t), "#ff0000", true)
	require.Len(t, rules, 1)
	assert.Equal(t, colorscale.DefaultNoDataColor, rules[0].Color)
}

func TestBuildDynamicRules_Empty(t *testing.T) {
	assert.Empty(t, BuildDynamicRules(nil, testScale(t), "#ff0000", true))
	assert.Empty(t, BuildDynamicRules(colorscale.Values{{Key: "unknown", Value: "4"}}, testScale(t), "#ff0000", true))
}

func TestRule_String(t *testing.T) {
	r := Rule{Key: "USA", Color: "#abcdef"}
	assert.Equal(t, ".vue-world-map #USA { fill: #abcdef; }", r.String())
}

func TestRule_StringEscapesKey(t *testing.T) {
	r := Rule{Key: "USA{} body{display:none} #x", Color: "#ffffff"}
	got := r.String()
	assert.Equal(t, `.vue-world-map #USA\7b \7d \20 body\7b display\3a none\7d \20 \23 x { fill: #ffffff; }`, got)
	assert.Equal(t, 1, strings.Count(got, "{"), "the key must not open a block")
	assert.Equal(t, 1, strings.Count(got, "}"), "the key must not close the rule")
}

func TestEscapeIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"USA", "USA"},
		{"de-by_2", "de-by_2"},
		{"1A", `\31 A`},
		{"-1", `-\31 `},
		{"-", `\-`},
		{"a b", `a\20 b`},
		{"a;b", `a\3b b`},
		{"</style>", `\3c \2f style\3e `},
		{"Åland", `\c5 land`},
		{"a\x00b", `a\fffd b`},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeIdent(tt.in))
		})
	}
}

func TestStylesheet_HostileKey(t *testing.T) {
	values := colorscale.Values{{Key: "X} .land{fill:red", Value: "1"}}
	css, err := Stylesheet(DefaultTheme(), values, testScale(t), true)
	require.NoError(t, err)

	rule := css[:strings.Index(css, "}")+1]
	assert.Equal(t, `.vue-world-map #X\7d \20 \2e land\7b fill\3a red { fill: #ffffff; }`, rule)
}

func TestStylesheet_SelectorPrefix(t *testing.T) {
	theme := DefaultTheme()
	theme.SelectorPrefix = "#atlas .map"
	values := colorscale.Values{{Key: "USA", Value: "1"}}

	css, err := Stylesheet(theme, values, testScale(t), true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(css, "#atlas .map #USA { fill: #ffffff; } #atlas .map .land{"), css)
	assert.NotContains(t, css, MapSelector)

	theme.SelectorPrefix = ""
	css, err = Stylesheet(theme, values, testScale(t), true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(css, ".vue-world-map #USA"), css)
}

func TestBuildStaticStyle(t *testing.T) {
	theme := DefaultTheme()
	theme.StrokeColor = "#101010"
	theme.LegendBorderRadius = 7

	css, err := BuildStaticStyle(theme)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(css, ".vue-world-map .land{"))
	assert.Contains(t, css, "stroke:#101010;")
	assert.Contains(t, css, "border-radius:7px;")
	assert.Contains(t, css, "box-shadow: 3px 4px #00000017;")

	theme.LegendBoxShadow = false
	css, err = BuildStaticStyle(theme)
	require.NoError(t, err)
	assert.Contains(t, css, "box-shadow: none;")
}

func TestCombine(t *testing.T) {
	rules := []Rule{{Key: "USA", Color: "#000000"}, {Key: "FRA", Color: "#ffffff"}}
	got := Combine("STATIC", rules)
	assert.Equal(t, ".vue-world-map #USA { fill: #000000; } .vue-world-map #FRA { fill: #ffffff; } STATIC", got)

	assert.Equal(t, "STATIC", Combine("STATIC", nil))
}

func TestStylesheet(t *testing.T) {
	theme := DefaultTheme()
	values := colorscale.Values{{Key: "USA", Value: "1"}}

	css, err := Stylesheet(theme, values, testScale(t), true)
	require.NoError(t, err)

	static, err := BuildStaticStyle(theme)
	require.NoError(t, err)
	// single data point gets full intensity
	assert.Equal(t, ".vue-world-map #USA { fill: #ffffff; } "+static, css)
}

func TestLoadTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	err := os.WriteFile(path, []byte("stroke_color: \"#222222\"\nlegend_box_shadow: false\nhigh_color: \"#ff0000\"\n"), 0600)
	require.NoError(t, err)

	theme, err := LoadTheme(path)
	require.NoError(t, err)
	assert.Equal(t, "#222222", theme.StrokeColor)
	assert.False(t, theme.LegendBoxShadow)
	assert.Equal(t, "#ff0000", theme.HighColor)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultTheme().LowColor, theme.LowColor)
}

func TestLoadTheme_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTheme(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("low_color: red\n"), 0600))
	_, err = LoadTheme(bad)
	assert.ErrorContains(t, err, "low_color")

	prefix := filepath.Join(dir, "prefix.yaml")
	require.NoError(t, os.WriteFile(prefix, []byte("selector_prefix: \"body{} .x\"\n"), 0600))
	_, err = LoadTheme(prefix)
	assert.ErrorContains(t, err, "selector_prefix")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("stroke_width: [1, 2\n"), 0600))
	_, err = LoadTheme(broken)
	assert.Error(t, err)
}

func TestTheme_Scale(t *testing.T) {
	theme := DefaultTheme()

	s, err := theme.Scale(ThemeScale)
	require.NoError(t, err)
	assert.Equal(t, theme.LowColor, s.Color(0).Hex())
	assert.Equal(t, theme.HighColor, s.Color(1).Hex())

	named, err := theme.Scale("documents")
	require.NoError(t, err)
	assert.Equal(t, "#050aac", named.Color(0).Hex())

	_, err = theme.Scale("viridis")
	assert.Error(t, err)
}
