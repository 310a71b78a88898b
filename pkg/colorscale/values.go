package colorscale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnknownKey is reserved for values that could not be attributed to a country.
// It never takes part in range computation or rendering.
const UnknownKey = "unknown"

// Entry is a single entity value. Value holds the raw text, which is either a
// number or a sentinel such as "No Data".
type Entry struct {
	Key   string
	Value string
}

// Values is an entity -> value mapping that keeps insertion order.
type Values []Entry

// Set replaces the value of an existing key in place or appends a new entry.
func (v *Values) Set(key, value string) {
	for i := range *v {
		if (*v)[i].Key == key {
			(*v)[i].Value = value
			return
		}
	}
	*v = append(*v, Entry{Key: key, Value: value})
}

// Get returns the raw value for key.
func (v Values) Get(key string) (string, bool) {
	for _, e := range v {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object keeping the document order of its keys.
// Numbers are kept in their textual form, strings are kept as-is.
func (v *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("entity values must be a JSON object")
	}

	out := Values{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		switch x := raw.(type) {
		case json.Number:
			out.Set(key, x.String())
		case string:
			out.Set(key, x)
		case nil:
			out.Set(key, "")
		default:
			return fmt.Errorf("value of %q: unsupported type %T", key, raw)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*v = out
	return nil
}

// MarshalJSON writes the values as a JSON object in insertion order. Numeric
// values are written as numbers, sentinels as strings.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if f, ok := parseValue(e.Value); ok {
			buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
			continue
		}
		s, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(s)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parseValue reports whether raw holds a finite number.
func parseValue(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
