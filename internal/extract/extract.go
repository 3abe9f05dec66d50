// Package extract recovers a single JSON value from free-form model output.
//
// Model answers frequently wrap their payload in prose or Markdown code
// fences. The helpers here narrow the text with a fixed sequence of
// heuristics and report a *ParseFailure instead of panicking when nothing
// parseable remains.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shape is the JSON shape a caller expects.
type Shape int

const (
	ShapeObject Shape = iota
	ShapeArray
)

// ParseFailure reports text that could not be decoded. Raw holds the
// original model text on the object path so callers can keep it around.
type ParseFailure struct {
	Err error
	Raw string
}

func (p *ParseFailure) Error() string {
	return fmt.Sprintf("parse model output: %v", p.Err)
}

func (p *ParseFailure) Unwrap() error { return p.Err }

// Extract narrows raw to its most likely JSON payload and decodes it. When
// shape is ShapeArray a lone object is wrapped into a one-element slice.
// The returned error, if any, is always a *ParseFailure.
func Extract(raw string, shape Shape) (any, error) {
	text := narrowFence(trimBOM(raw))
	if shape == ShapeArray {
		text = narrowBrackets(text)
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		pf := &ParseFailure{Err: err}
		if shape == ShapeObject {
			pf.Raw = raw
		}
		return nil, pf
	}
	if shape == ShapeArray {
		if obj, ok := v.(map[string]any); ok {
			return []any{obj}, nil
		}
	}
	return v, nil
}

// Object extracts a JSON object. Valid JSON of another kind is a failure.
func Object(raw string) (Fields, error) {
	v, err := Extract(raw, ShapeObject)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseFailure{Err: fmt.Errorf("expected object, got %s", kindOf(v)), Raw: raw}
	}
	return Fields(obj), nil
}

// Array extracts a JSON array of objects. Elements that are not objects
// are dropped.
func Array(raw string) ([]Fields, error) {
	v, err := Extract(raw, ShapeArray)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &ParseFailure{Err: fmt.Errorf("expected array, got %s", kindOf(v))}
	}
	out := make([]Fields, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, Fields(obj))
		}
	}
	return out, nil
}

// narrowFence prefers a block tagged json and otherwise takes the first
// fenced block. An opening fence without a closing one leaves s unchanged.
func narrowFence(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		start := i + len("```json")
		if end := strings.Index(s[start:], "```"); end > 0 {
			return strings.TrimSpace(s[start : start+end])
		}
		return s
	}
	if i := strings.Index(s, "```"); i >= 0 {
		start := i + len("```")
		if end := strings.Index(s[start:], "```"); end > 0 {
			return strings.TrimSpace(s[start : start+end])
		}
	}
	return s
}

func narrowBrackets(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
