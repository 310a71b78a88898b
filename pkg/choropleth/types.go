package choropleth

import (
	"encoding/json"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Row is one validated record of the document count table.
type Row struct {
	Year     string  `json:"year"`
	Location string  `json:"iso_alpha"`
	Value    float64 `json:"popularity"`
	Label    string  `json:"country"`
}

// YearFrame collects every row of one year in arrival order.
type YearFrame struct {
	Year      string
	Locations []string
	Values    []float64
	Labels    []string
	Total     float64
}

// Figure is a Plotly figure: traces, layout, animation frames and config.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Frames []Frame `json:"frames"`
	Config Config  `json:"config"`
}

// Trace is implemented by every trace kind placed in Figure.Data.
type Trace interface {
	TraceType() string
}

// FrameTrace carries the per-year data of a choropleth.
type FrameTrace struct {
	Type      string    `json:"type"`
	Locations []string  `json:"locations"`
	Z         []float64 `json:"z"`
	Text      []string  `json:"text"`
}

func (t *FrameTrace) TraceType() string { return t.Type }

// ChoroplethTrace is the base trace shown before any animation step.
type ChoroplethTrace struct {
	FrameTrace
	Name         string      `json:"name"`
	ColorScale   []ColorStop `json:"colorscale"`
	ReverseScale bool        `json:"reversescale"`
	Marker       Marker      `json:"marker"`
	Tick0        float64     `json:"tick0"`
	ZMin         float64     `json:"zmin"`
	DTick        float64     `json:"dtick"`
	ColorBar     ColorBar    `json:"colorbar"`
}

// ScatterTrace is the documents-per-year trend line.
type ScatterTrace struct {
	Type  string    `json:"type"`
	Name  string    `json:"name,omitempty"`
	X     []string  `json:"x"`
	Y     []float64 `json:"y"`
	XAxis string    `json:"xaxis"`
	YAxis string    `json:"yaxis"`
}

func (t *ScatterTrace) TraceType() string { return t.Type }

// ColorStop is a [position, "rgb(r, g, b)"] pair of a Plotly colorscale.
type ColorStop struct {
	Pos   float64
	Color colorful.Color
}

func (c ColorStop) MarshalJSON() ([]byte, error) {
	r, g, b := c.Color.RGB255()
	return json.Marshal([]interface{}{c.Pos, fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)})
}

type Marker struct {
	Line MarkerLine `json:"line"`
}

type MarkerLine struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

type ColorBar struct {
	Thickness  int     `json:"thickness"`
	AutoTick   bool    `json:"autotick"`
	TickPrefix string  `json:"tickprefix"`
	Len        float64 `json:"len"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Title      string  `json:"title"`
}

// Frame is a named animation snapshot.
type Frame struct {
	Name string       `json:"name"`
	Data []FrameTrace `json:"data"`
}

type Layout struct {
	Title       string       `json:"title"`
	Geo         Geo          `json:"geo"`
	Height      int          `json:"height"`
	HoverMode   string       `json:"hovermode"`
	UpdateMenus []UpdateMenu `json:"updatemenus"`
	Sliders     []Slider     `json:"sliders"`
	XAxis2      *Axis        `json:"xaxis2,omitempty"`
	YAxis2      *Axis        `json:"yaxis2,omitempty"`
}

type Geo struct {
	ShowFrame      bool       `json:"showframe"`
	ShowCoastlines bool       `json:"showcoastlines"`
	Projection     Projection `json:"projection"`
}

type Projection struct {
	Type string `json:"type"`
}

type Axis struct {
	Domain [2]float64 `json:"domain"`
	Anchor string     `json:"anchor"`
}

type Pad struct {
	T int `json:"t"`
	R int `json:"r,omitempty"`
	L int `json:"l,omitempty"`
}

type UpdateMenu struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	YAnchor    string   `json:"yanchor"`
	XAnchor    string   `json:"xanchor"`
	ShowActive bool     `json:"showactive"`
	Direction  string   `json:"direction"`
	Type       string   `json:"type"`
	Pad        Pad      `json:"pad"`
	Buttons    []Button `json:"buttons"`
}

// Button and SliderStep args follow Plotly.animate: a frame selector (a list
// of frame names, null for all frames, [null] to stop) and the options.
type Button struct {
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
	Label  string        `json:"label"`
}

type AnimationOptions struct {
	Mode        string      `json:"mode"`
	FromCurrent bool        `json:"fromcurrent,omitempty"`
	Transition  Transition  `json:"transition"`
	Frame       FrameTiming `json:"frame"`
}

type Transition struct {
	Duration int `json:"duration"`
}

type FrameTiming struct {
	Duration int  `json:"duration"`
	Redraw   bool `json:"redraw"`
}

type Slider struct {
	Pad          Pad          `json:"pad"`
	CurrentValue CurrentValue `json:"currentvalue"`
	Steps        []SliderStep `json:"steps"`
}

type CurrentValue struct {
	Visible bool   `json:"visible"`
	Prefix  string `json:"prefix"`
	XAnchor string `json:"xanchor"`
	Font    Font   `json:"font"`
}

type Font struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

type SliderStep struct {
	Method string        `json:"method"`
	Label  string        `json:"label"`
	Args   []interface{} `json:"args"`
}

type Config struct {
	ShowSendToCloud bool `json:"showSendToCloud"`
	Responsive      bool `json:"responsive"`
}
