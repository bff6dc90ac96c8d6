package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is how parsed timestamps are written back out.
const TimestampLayout = "2006-01-02 15:04:05"

// Kind tags the type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindFloat
	KindTime
)

// Value is a single nullable table cell.
type Value struct {
	kind Kind
	s    string
	f    float64
	t    time.Time
}

// Null returns the missing value.
func Null() Value { return Value{} }

// String wraps free text.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Float wraps a number. NaN and infinities are stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindFloat, f: f}
}

// Time wraps a timestamp. The zero time is stored as null.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	return Value{kind: KindTime, t: t}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the text of a string value.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Num returns the number held by a float value.
func (v Value) Num() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Timestamp returns the time held by a time value.
func (v Value) Timestamp() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Text renders the value the way it is written to CSV: null is empty,
// floats use the shortest round-trip form with a trailing ".0" when integral.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindFloat:
		return formatFloat(v.f)
	case KindTime:
		return v.t.Format(TimestampLayout)
	default:
		return ""
	}
}

// MarshalJSON emits null, a JSON number, or a JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindFloat:
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.Text())
	}
}

func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
