package colorscale

import "github.com/lucasb-eyer/go-colorful"

// DefaultNoDataColor is used for sentinel values when the scale has no
// dedicated color for them.
const DefaultNoDataColor = "#cccccc"

// Range is the observed value range of an entity map.
type Range struct {
	Min float64
	Max float64
}

// Position is a value placed on the [0,1] scale. When NoData is set, the raw
// value was not numeric and Raw carries it unchanged.
type Position struct {
	T      float64
	NoData bool
	Raw    string
}

// Scale maps a position in [0,1] to a color.
type Scale interface {
	Color(t float64) colorful.Color
}

// ScaleFunc adapts a plain function to Scale.
type ScaleFunc func(t float64) colorful.Color

func (f ScaleFunc) Color(t float64) colorful.Color {
	return f(t)
}

// NoDataColorer is implemented by scales that carry their own color for
// sentinel values.
type NoDataColorer interface {
	NoDataHex() string
}

// ComputeRange scans every numeric entry except UnknownKey. It returns false
// when there is nothing to scale; callers must then skip stylesheet generation.
func ComputeRange(v Values) (Range, bool) {
	var r Range
	found := false
	for _, e := range v {
		if e.Key == UnknownKey {
			continue
		}
		f, ok := parseValue(e.Value)
		if !ok {
			continue
		}
		if !found || f < r.Min {
			r.Min = f
		}
		if !found || f > r.Max {
			r.Max = f
		}
		found = true
	}
	return r, found
}

// ScaleUnit is the factor that maps (value - min) into [0,1]. A single data
// point (min == max) gets 1.
func ScaleUnit(r Range) float64 {
	if r.Max == r.Min {
		return 1
	}
	return 1 / (r.Max - r.Min)
}

// ScaleValue places raw on the scale. A non-numeric raw value is not an error:
// it comes back untouched with NoData set.
func ScaleValue(raw string, r Range, unit float64) Position {
	f, ok := parseValue(raw)
	if !ok {
		return Position{NoData: true, Raw: raw}
	}
	if r.Min == r.Max {
		return Position{T: unit, Raw: raw}
	}
	return Position{T: unit * (f - r.Min), Raw: raw}
}

// ResolveColor returns the hex color for p. Dynamic coloring is all or
// nothing: when disabled every entity gets highColor. A nil scale behaves as
// disabled dynamic coloring.
func ResolveColor(p Position, s Scale, highColor string, dynamic bool) string {
	if !dynamic || s == nil {
		return highColor
	}
	if p.NoData {
		if nd, ok := s.(NoDataColorer); ok {
			return nd.NoDataHex()
		}
		return DefaultNoDataColor
	}
	return s.Color(p.T).Hex()
}
