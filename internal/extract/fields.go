package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fields is a decoded JSON object with forgiving accessors. Missing keys
// and values of the wrong kind yield the supplied default instead of an
// error, matching how loosely models follow a requested schema.
type Fields map[string]any

// Has reports whether key is present and not null.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// String returns the value at key as text. Numbers and booleans are
// formatted; objects and arrays fall back to def.
func (f Fields) String(key, def string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	}
	return def
}

// OptString returns a pointer to the text at key, or nil when absent or empty.
func (f Fields) OptString(key string) *string {
	s := strings.TrimSpace(f.String(key, ""))
	if s == "" {
		return nil
	}
	return &s
}

// Strings returns the string elements at key. A single string becomes a
// one-element slice. The result is never nil.
func (f Fields) Strings(key string) []string {
	out := []string{}
	switch v := f[key].(type) {
	case []any:
		for _, item := range v {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case float64:
				out = append(out, strconv.FormatFloat(s, 'f', -1, 64))
			}
		}
	case []string:
		out = append(out, v...)
	case string:
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Float returns the numeric value at key. Numeric strings are accepted.
func (f Fields) Float(key string, def float64) float64 {
	switch v := f[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return v
	case int:
		return float64(v)
	case json.Number:
		if x, err := v.Float64(); err == nil {
			return x
		}
	case string:
		if x, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return x
		}
	}
	return def
}

// Int returns the value at key truncated to an integer.
func (f Fields) Int(key string, def int) int {
	x := f.Float(key, math.NaN())
	if math.IsNaN(x) {
		return def
	}
	return int(x)
}

// IntIn returns Int(key, def) clamped to [lo, hi].
func (f Fields) IntIn(key string, def, lo, hi int) int {
	return Clamp(f.Int(key, def), lo, hi)
}

// Object returns the nested object at key, or an empty Fields.
func (f Fields) Object(key string) Fields {
	if v, ok := f[key].(map[string]any); ok {
		return Fields(v)
	}
	return Fields{}
}

// Objects returns the nested objects at key. Non-object elements are skipped.
func (f Fields) Objects(key string) []Fields {
	items, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Fields, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, Fields(obj))
		}
	}
	return out
}

// Raw returns the map form, for embedding in payloads.
func (f Fields) Raw() map[string]any {
	return map[string]any(f)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Failure builds the raw-map entry recorded for an unparseable answer.
func Failure(err error, raw string) map[string]any {
	return map[string]any{
		"raw_content": raw,
		"parse_error": fmt.Sprint(err),
	}
}
