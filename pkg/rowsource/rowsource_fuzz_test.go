package rowsource

import (
	"math"
	"strings"
	"testing"
)

func FuzzParseCSV(f *testing.F) {
	f.Add(sampleCSV)
	f.Add("year,iso_alpha,popularity,country\n")
	f.Add("country,popularity,iso_alpha,year\nKenya,1e3,KEN,2001\n")
	f.Add("year,iso_alpha,popularity,country\n2020,USA,Inf,US\n")
	f.Add("\"")

	f.Fuzz(func(t *testing.T, input string) {
		rows, err := ParseCSV(strings.NewReader(input))
		if err != nil {
			return
		}
		for i, r := range rows {
			if r.Year == "" || r.Location == "" {
				t.Errorf("row %d has an empty key: %+v", i, r)
			}
			if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
				t.Errorf("row %d has a non-finite value: %v", i, r.Value)
			}
		}
	})
}
