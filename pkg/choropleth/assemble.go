package choropleth

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/wbnlp/docmap/pkg/colorscale"
)

const (
	DefaultTitle  = "Popularity of countries in World Bank documents over time"
	DefaultHeight = 600

	colorBarTitle = "Documents"
	scaleName     = "documents"

	stepTransitionMS  = 300
	stepFrameMS       = 500
	pauseTransitionMS = 100
	pauseFrameMS      = 100
)

// Options tune a single Assemble call.
type Options struct {
	Title  string
	Height int
	// Trend adds a documents-per-year scatter trace on a secondary axis.
	Trend bool
	// SortYears orders frames chronologically instead of by first appearance.
	SortYears bool
}

// GroupByYear accumulates rows into one frame per year. Frames are returned in
// the order their year first appears, or chronologically when sorted is set.
// Duplicate locations within a year are kept as separate points.
func GroupByYear(rows []Row, sorted bool) []*YearFrame {
	byYear := make(map[string]*YearFrame)
	var frames []*YearFrame

	for _, row := range rows {
		f, ok := byYear[row.Year]
		if !ok {
			f = &YearFrame{Year: row.Year}
			byYear[row.Year] = f
			frames = append(frames, f)
		}
		f.Locations = append(f.Locations, row.Location)
		f.Values = append(f.Values, row.Value)
		f.Labels = append(f.Labels, row.Label)
		f.Total += row.Value
	}

	if sorted {
		sortFrames(frames)
	}
	return frames
}

// sortFrames orders numerically when every year is an integer and lexically
// otherwise.
func sortFrames(frames []*YearFrame) {
	keys := make(map[*YearFrame]int, len(frames))
	for _, f := range frames {
		n, err := strconv.Atoi(strings.TrimSpace(f.Year))
		if err != nil {
			sort.SliceStable(frames, func(i, j int) bool { return frames[i].Year < frames[j].Year })
			return
		}
		keys[f] = n
	}
	sort.SliceStable(frames, func(i, j int) bool { return keys[frames[i]] < keys[frames[j]] })
}

// Snapshot copies the frame data so the result shares no backing array with f.
func (f *YearFrame) Snapshot() FrameTrace {
	return FrameTrace{
		Type:      "choropleth",
		Locations: slices.Clone(f.Locations),
		Z:         slices.Clone(f.Values),
		Text:      slices.Clone(f.Labels),
	}
}

// EntityValues exposes the frame as a country -> count map for the world map
// stylesheet. Later duplicates of a location override earlier ones.
func (f *YearFrame) EntityValues() colorscale.Values {
	v := make(colorscale.Values, 0, len(f.Locations))
	for i, loc := range f.Locations {
		v.Set(loc, strconv.FormatFloat(f.Values[i], 'f', -1, 64))
	}
	return v
}

// Assemble builds an animated choropleth figure from rows. It keeps no state:
// every call returns freshly allocated slices.
func Assemble(rows []Row, opts Options) *Figure {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	frames := GroupByYear(rows, opts.SortYears)
	years := make([]string, 0, len(frames))
	totals := make([]float64, 0, len(frames))
	for _, f := range frames {
		years = append(years, f.Year)
		totals = append(totals, f.Total)
	}

	fig := &Figure{
		Data:   []Trace{baseTrace(frames)},
		Layout: baseLayout(opts),
		Frames: make([]Frame, 0, len(frames)),
		Config: Config{ShowSendToCloud: true, Responsive: true},
	}

	steps := make([]SliderStep, 0, len(frames))
	for _, f := range frames {
		fig.Frames = append(fig.Frames, Frame{
			Name: f.Year,
			Data: []FrameTrace{f.Snapshot()},
		})
		steps = append(steps, SliderStep{
			Method: "animate",
			Label:  f.Year,
			Args: []interface{}{
				[]string{f.Year},
				AnimationOptions{
					Mode:       "immediate",
					Transition: Transition{Duration: stepTransitionMS},
					Frame:      FrameTiming{Duration: stepFrameMS, Redraw: true},
				},
			},
		})
	}
	fig.Layout.Sliders[0].Steps = steps

	if opts.Trend {
		fig.Data = append(fig.Data, &ScatterTrace{
			Type:  "scatter",
			Name:  colorBarTitle,
			X:     years,
			Y:     totals,
			XAxis: "x2",
			YAxis: "y2",
		})
		fig.Layout.XAxis2 = &Axis{Domain: [2]float64{0.6, 0.95}, Anchor: "y2"}
		fig.Layout.YAxis2 = &Axis{Domain: [2]float64{0.6, 0.95}, Anchor: "x2"}
	}
	return fig
}

func baseTrace(frames []*YearFrame) *ChoroplethTrace {
	t := &ChoroplethTrace{
		FrameTrace: FrameTrace{
			Type:      "choropleth",
			Locations: []string{},
			Z:         []float64{},
			Text:      []string{},
		},
		ColorScale:   plotlyScale(),
		ReverseScale: true,
		Marker:       Marker{Line: MarkerLine{Color: "rgb(180,180,180)", Width: 0.5}},
		Tick0:        0,
		ZMin:         0,
		DTick:        1000,
		ColorBar: ColorBar{
			Thickness: 10,
			Len:       0.3,
			X:         0.9,
			Y:         0.7,
			Title:     colorBarTitle,
		},
	}
	if len(frames) > 0 {
		t.Name = frames[0].Year
		t.FrameTrace = frames[0].Snapshot()
	}
	return t
}

func plotlyScale() []ColorStop {
	g, err := colorscale.Named(scaleName)
	if err != nil {
		return nil
	}
	stops := make([]ColorStop, 0, len(g.Stops))
	for _, s := range g.Stops {
		stops = append(stops, ColorStop{Pos: s.Pos, Color: s.Color})
	}
	return stops
}

func baseLayout(opts Options) Layout {
	return Layout{
		Title: opts.Title,
		Geo: Geo{
			ShowFrame:      true,
			ShowCoastlines: false,
			Projection:     Projection{Type: "natural earth"},
		},
		Height:    opts.Height,
		HoverMode: "closest",
		UpdateMenus: []UpdateMenu{{
			X:          0,
			Y:          0,
			YAnchor:    "top",
			XAnchor:    "left",
			ShowActive: true,
			Direction:  "left",
			Type:       "buttons",
			Pad:        Pad{T: 30, R: 10},
			Buttons: []Button{
				{
					Method: "animate",
					Args: []interface{}{nil, AnimationOptions{
						Mode:        "immediate",
						FromCurrent: true,
						Transition:  Transition{Duration: stepTransitionMS},
						Frame:       FrameTiming{Duration: stepFrameMS, Redraw: true},
					}},
					Label: "Play",
				},
				{
					Method: "animate",
					Args: []interface{}{[]interface{}{nil}, AnimationOptions{
						Mode:       "immediate",
						Transition: Transition{Duration: pauseTransitionMS},
						Frame:      FrameTiming{Duration: pauseFrameMS, Redraw: true},
					}},
					Label: "Pause",
				},
			},
		}},
		Sliders: []Slider{{
			Pad: Pad{L: 130, T: 0},
			CurrentValue: CurrentValue{
				Visible: true,
				Prefix:  "Year:",
				XAnchor: "right",
				Font:    Font{Size: 20, Color: "#666"},
			},
			Steps: []SliderStep{},
		}},
	}
}
