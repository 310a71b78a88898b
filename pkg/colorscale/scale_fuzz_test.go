package colorscale

import (
	"encoding/json"
	"testing"
)

func FuzzScaleValue(f *testing.F) {
	f.Add("42")
	f.Add("-1.5")
	f.Add("No Data")
	f.Add("")
	f.Add("1e309")
	f.Add("NaN")
	f.Add("  7  ")

	f.Fuzz(func(t *testing.T, raw string) {
		r := Range{Min: 0, Max: 10}
		p := ScaleValue(raw, r, ScaleUnit(r))
		if p.Raw != raw {
			t.Fatalf("raw value changed: %q -> %q", raw, p.Raw)
		}
		g, _ := Named("documents")
		_ = ResolveColor(p, g, "#000000", true)
	})
}

func FuzzValuesUnmarshal(f *testing.F) {
	f.Add([]byte(`{"USA": 10, "FRA": "No Data"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"a": null}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`not json`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var v Values
		// Should never panic
		if err := json.Unmarshal(data, &v); err != nil {
			return
		}
		_, _ = ComputeRange(v)
	})
}
