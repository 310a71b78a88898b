package mapstyle

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/wbnlp/docmap/pkg/colorscale"
)

// MapSelector scopes every rule to the world map component.
const MapSelector = ".vue-world-map"

const boxShadow = "3px 4px #00000017"

// Rule fills one country of the map. An empty Prefix means MapSelector.
type Rule struct {
	Prefix string
	Key    string
	Color  string
}

// Selector scopes the escaped key under the prefix, so a key can never
// leave its rule.
func (r Rule) Selector() string {
	prefix := r.Prefix
	if prefix == "" {
		prefix = MapSelector
	}
	return prefix + " #" + EscapeIdent(r.Key)
}

// EscapeIdent writes s as a CSS identifier. ASCII letters, digits, '-' and
// '_' pass through; everything else becomes a hex escape. A leading digit, or
// a digit after a leading '-', is escaped too.
func EscapeIdent(s string) string {
	if s == "-" {
		return `\-`
	}
	var b strings.Builder
	for i, c := range s {
		switch {
		case c == 0:
			b.WriteString(`\fffd `)
		case c >= '0' && c <= '9':
			if i == 0 || (i == 1 && s[0] == '-') {
				fmt.Fprintf(&b, `\%x `, c)
			} else {
				b.WriteRune(c)
			}
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-', c == '_':
			b.WriteRune(c)
		default:
			fmt.Fprintf(&b, `\%x `, c)
		}
	}
	return b.String()
}

func (r Rule) String() string {
	return fmt.Sprintf("%s { fill: %s; }", r.Selector(), r.Color)
}

// BuildDynamicRules emits one fill rule per entity in input order, skipping
// colorscale.UnknownKey. A map with nothing to scale yields no rules for
// numeric entries; sentinel entries still get the no-data color.
func BuildDynamicRules(v colorscale.Values, s colorscale.Scale, highColor string, dynamic bool) []Rule {
	r, ok := colorscale.ComputeRange(v)
	unit := 1.0
	if ok {
		unit = colorscale.ScaleUnit(r)
	}

	var rules []Rule
	for _, e := range v {
		if e.Key == colorscale.UnknownKey {
			continue
		}
		p := colorscale.ScaleValue(e.Value, r, unit)
		rules = append(rules, Rule{
			Key:   e.Key,
			Color: colorscale.ResolveColor(p, s, highColor, dynamic),
		})
	}
	return rules
}

type staticData struct {
	Theme
	Selector  string
	BoxShadow string
}

// BuildStaticStyle renders the data independent part of the stylesheet.
func BuildStaticStyle(t Theme) (string, error) {
	tmpl, err := template.New("css").Parse(baseCSSTemplateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse CSS template: %w", err)
	}

	data := staticData{Theme: t, Selector: t.selector(), BoxShadow: "none"}
	if t.LegendBoxShadow {
		data.BoxShadow = boxShadow
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute CSS template: %w", err)
	}
	return buf.String(), nil
}

// Combine joins the dynamic rules and the static stylesheet with single
// spaces. The static part always comes last so it wins the cascade on equal
// specificity.
func Combine(static string, rules []Rule) string {
	parts := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		parts = append(parts, r.String())
	}
	parts = append(parts, static)
	return strings.Join(parts, " ")
}

// Stylesheet builds the full map stylesheet for v. When v holds no entity to
// color only the static part is returned.
func Stylesheet(t Theme, v colorscale.Values, s colorscale.Scale, dynamic bool) (string, error) {
	static, err := BuildStaticStyle(t)
	if err != nil {
		return "", err
	}
	rules := BuildDynamicRules(v, s, t.HighColor, dynamic)
	for i := range rules {
		rules[i].Prefix = t.selector()
	}
	return Combine(static, rules), nil
}

//go:embed templates/base.css.tmpl
var baseCSSTemplateStr string
