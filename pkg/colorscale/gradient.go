package colorscale

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Stop is a color anchored at a position of the scale.
type Stop struct {
	Pos   float64
	Color colorful.Color
}

// Gradient interpolates between stops in Lab space. Stops must be sorted by
// position.
type Gradient struct {
	Stops  []Stop
	NoData string
}

// NewGradient spreads the given hex colors evenly over [0,1].
func NewGradient(hexes ...string) (*Gradient, error) {
	if len(hexes) < 2 {
		return nil, fmt.Errorf("a gradient needs at least 2 colors, got %d", len(hexes))
	}
	g := &Gradient{}
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", h, err)
		}
		g.Stops = append(g.Stops, Stop{
			Pos:   float64(i) / float64(len(hexes)-1),
			Color: c,
		})
	}
	return g, nil
}

// Between builds the two-color scale used for the world map fill.
func Between(low, high string) (*Gradient, error) {
	return NewGradient(low, high)
}

// Color returns the interpolated color at t. Values outside the stop range are
// clamped to the first or last stop.
func (g *Gradient) Color(t float64) colorful.Color {
	if len(g.Stops) == 0 {
		return colorful.Color{}
	}
	first := g.Stops[0]
	last := g.Stops[len(g.Stops)-1]
	if t <= first.Pos {
		return first.Color
	}
	if t >= last.Pos {
		return last.Color
	}

	for i := 0; i < len(g.Stops)-1; i++ {
		c1 := g.Stops[i]
		c2 := g.Stops[i+1]
		if t >= c1.Pos && t <= c2.Pos {
			if c2.Pos == c1.Pos {
				return c2.Color
			}
			f := (t - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Color.BlendLab(c2.Color, f).Clamped()
		}
	}
	return last.Color
}

func (g *Gradient) NoDataHex() string {
	if g.NoData != "" {
		return g.NoData
	}
	return DefaultNoDataColor
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

var named = map[string]*Gradient{
	// The fixed scale of the animated choropleth.
	"documents": {Stops: []Stop{
		{0.00, rgb(5, 10, 172)},
		{0.35, rgb(40, 60, 190)},
		{0.50, rgb(70, 100, 245)},
		{0.60, rgb(90, 120, 245)},
		{0.70, rgb(106, 137, 247)},
		{1.00, rgb(220, 220, 220)},
	}},
	// Approximated from Matplotlib's RdYlBu_r (Blue -> Yellow -> Red)
	"rdylbu_r": {Stops: []Stop{
		{0.00, rgb(49, 54, 149)},
		{0.25, rgb(116, 173, 209)},
		{0.50, rgb(255, 255, 191)},
		{0.75, rgb(253, 174, 97)},
		{1.00, rgb(215, 48, 39)},
	}},
	"blues": {Stops: []Stop{
		{0.00, rgb(247, 251, 255)},
		{0.25, rgb(198, 219, 239)},
		{0.50, rgb(107, 174, 214)},
		{0.75, rgb(33, 113, 181)},
		{1.00, rgb(8, 48, 107)},
	}},
}

// Named returns a copy of a built-in scale.
func Named(name string) (*Gradient, error) {
	g, ok := named[name]
	if !ok {
		return nil, fmt.Errorf("unknown color scale %q", name)
	}
	stops := make([]Stop, len(g.Stops))
	copy(stops, g.Stops)
	return &Gradient{Stops: stops, NoData: g.NoData}, nil
}

// Names lists the built-in scales in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
