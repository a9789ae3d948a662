package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Params holds the per-request parameter state shared by every pipeline
// stage. Raw values arrive as strings; typed reads convert on demand and
// fall back to the caller's default on any failure, so a read never fails.
// Updates store natively typed values that later reads observe unchanged.
type Params struct {
	values map[string]any
}

func New() *Params {
	return &Params{values: make(map[string]any)}
}

// FromValues seeds a store from raw request query parameters. When a key
// repeats, the last value wins.
func FromValues(v url.Values) *Params {
	p := New()
	for key, vals := range v {
		if len(vals) == 0 {
			p.values[key] = ""
			continue
		}
		p.values[key] = vals[len(vals)-1]
	}
	return p
}

func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Value returns the stored value as-is, for callers that keep their own
// typed state in the store.
func (p *Params) Value(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Update stores a typed value under key, replacing any raw string.
func (p *Params) Update(key string, value any) {
	p.values[key] = value
}

func (p *Params) Int(key string, def int) int {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

// IntIf reads an int and keeps it only when ok accepts it.
func (p *Params) IntIf(key string, def int, ok func(int) bool) int {
	v, present := p.values[key]
	if !present {
		return def
	}
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if !ok(n) {
		return def
	}
	return n
}

func (p *Params) Float(key string, def float64) float64 {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

// FloatIf reads a float and keeps it only when ok accepts it.
func (p *Params) FloatIf(key string, def float64, ok func(float64) bool) float64 {
	v, present := p.values[key]
	if !present {
		return def
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if !ok(f) {
		return def
	}
	return f
}

// Bool treats a bare parameter (present with an empty value) as true, the
// usual query-string convention for flags.
func (p *Params) Bool(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func (p *Params) String(key, def string) string {
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Ints reads a comma-separated integer list. Every element must parse or
// the whole list falls back.
func (p *Params) Ints(key string, def []int) []int {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case []int:
		return t
	case string:
		parts := strings.Split(t, ",")
		out := make([]int, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return def
			}
			out = append(out, n)
		}
		return out
	}
	return def
}

// IntsIf reads an integer list and keeps it only when ok accepts it.
func (p *Params) IntsIf(key string, def []int, ok func([]int) bool) []int {
	if !p.Has(key) {
		return def
	}
	v := p.Ints(key, nil)
	if v == nil || !ok(v) {
		return def
	}
	return v
}

// Coordinate reads a dimension spec (absolute pixels or a ratio).
func (p *Params) Coordinate(key string, def Coordinate) Coordinate {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case Coordinate:
		return t
	case string:
		if c, ok := ParseCoordinate(t); ok {
			return c
		}
	}
	return def
}
