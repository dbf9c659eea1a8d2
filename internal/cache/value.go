package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the type held by a Value.
type Kind string

const (
	KindInt32    Kind = "int32"
	KindInt64    Kind = "int64"
	KindFloat64  Kind = "float64"
	KindString   Kind = "string"
	KindStrings  Kind = "strings"
	KindInt32s   Kind = "int32s"
	KindInt64s   Kind = "int64s"
	KindFloat64s Kind = "float64s"
)

// Kinds lists every supported kind.
var Kinds = []Kind{
	KindInt32, KindInt64, KindFloat64, KindString,
	KindStrings, KindInt32s, KindInt64s, KindFloat64s,
}

// Value is a tagged union over the supported kinds.
type Value struct {
	Kind Kind
	data interface{}
}

// Int32 returns the value if it holds an int32.
func (v Value) Int32() (int32, bool) {
	x, ok := v.data.(int32)
	return x, ok
}

// Int64 returns the value if it holds an int64.
func (v Value) Int64() (int64, bool) {
	x, ok := v.data.(int64)
	return x, ok
}

// Float64 returns the value if it holds a float64.
func (v Value) Float64() (float64, bool) {
	x, ok := v.data.(float64)
	return x, ok
}

// Str returns the value if it holds a string.
func (v Value) Str() (string, bool) {
	x, ok := v.data.(string)
	return x, ok
}

// Strings returns the value if it holds a string sequence.
func (v Value) Strings() ([]string, bool) {
	x, ok := v.data.([]string)
	return x, ok
}

// Int32s returns the value if it holds an int32 sequence.
func (v Value) Int32s() ([]int32, bool) {
	x, ok := v.data.([]int32)
	return x, ok
}

// Int64s returns the value if it holds an int64 sequence.
func (v Value) Int64s() ([]int64, bool) {
	x, ok := v.data.([]int64)
	return x, ok
}

// Float64s returns the value if it holds a float sequence.
func (v Value) Float64s() ([]float64, bool) {
	x, ok := v.data.([]float64)
	return x, ok
}

// String renders the held value.
func (v Value) String() string {
	return fmt.Sprint(v.data)
}

// Encode returns the stored form of the held value: JSON, except that float
// kinds use strconv formatting so NaN and infinities survive a round trip.
func (v Value) Encode() (string, error) {
	switch x := v.data.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	}

	data, err := json.Marshal(v.data)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s value: %w", v.Kind, err)
	}
	return string(data), nil
}

// Decode rebuilds a Value of the given kind from its stored form.
func Decode(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindFloat64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("failed to decode %s value: %w", kind, err)
		}
		return Value{Kind: kind, data: f}, nil
	case KindFloat64s:
		list, err := decodeFloats(raw)
		if err != nil {
			return Value{}, fmt.Errorf("failed to decode %s value: %w", kind, err)
		}
		return Value{Kind: kind, data: list}, nil
	}

	var target interface{}
	switch kind {
	case KindInt32:
		target = new(int32)
	case KindInt64:
		target = new(int64)
	case KindString:
		target = new(string)
	case KindStrings:
		target = new([]string)
	case KindInt32s:
		target = new([]int32)
	case KindInt64s:
		target = new([]int64)
	default:
		return Value{}, fmt.Errorf("unknown value kind %q", kind)
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return Value{}, fmt.Errorf("failed to decode %s value: %w", kind, err)
	}

	var data interface{}
	switch p := target.(type) {
	case *int32:
		data = *p
	case *int64:
		data = *p
	case *string:
		data = *p
	case *[]string:
		data = *p
	case *[]int32:
		data = *p
	case *[]int64:
		data = *p
	}
	return Value{Kind: kind, data: data}, nil
}

func decodeFloats(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("malformed list %q", raw)
	}
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	out := make([]float64, 0)
	if inner == "" {
		return out, nil
	}
	for _, s := range strings.Split(inner, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseFinite is strconv.ParseFloat without NaN and infinities.
func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}

// Set parses text as a value of kind and stores it under key. Sequence kinds
// take comma-separated elements.
func (c *Cache) Set(kind Kind, key, text string) error {
	switch kind {
	case KindInt32:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
		if err != nil {
			return err
		}
		c.AddInt32(key, int32(n))
	case KindInt64:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return err
		}
		c.AddInt64(key, n)
	case KindFloat64:
		f, err := parseFinite(strings.TrimSpace(text))
		if err != nil {
			return err
		}
		c.AddFloat64(key, f)
	case KindString:
		c.AddString(key, text)
	case KindStrings:
		c.AddStrings(key, splitList(text))
	case KindInt32s:
		out := make([]int32, 0)
		for _, s := range splitList(text) {
			n, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return err
			}
			out = append(out, int32(n))
		}
		c.AddInt32s(key, out)
	case KindInt64s:
		out := make([]int64, 0)
		for _, s := range splitList(text) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return err
			}
			out = append(out, n)
		}
		c.AddInt64s(key, out)
	case KindFloat64s:
		out := make([]float64, 0)
		for _, s := range splitList(text) {
			f, err := parseFinite(s)
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		c.AddFloat64s(key, out)
	default:
		return fmt.Errorf("unknown value kind %q", kind)
	}
	return nil
}

func splitList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}
	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
