// Package core implements the aggregation engine: date parsing, date-context
// filtering and the sales and profit aggregators.
//
// This file contains Value, the loosely typed scalar used for record fields
// that arrive as either strings or numbers, and its coercion rules.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota // key absent from the record
	KindNull
	KindString
	KindNumber
	KindBool
	KindTime
	KindOther // object or array
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "other"
	}
}

// Value is a tagged union over the scalar shapes a record field can take.
// The zero Value is KindMissing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
	raw  json.RawMessage
}

// NullValue returns an explicit null.
func NullValue() Value { return Value{kind: KindNull} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps f.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue wraps an already parsed timestamp.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Present reports whether the field existed in the input, null included.
func (v Value) Present() bool { return v.kind != KindMissing }

// IsZero lets encoding/json omit missing fields tagged with omitzero.
func (v Value) IsZero() bool { return v.kind == KindMissing }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Time returns the timestamp payload and whether v is a timestamp.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// Float coerces v to a number. Anything that is not a finite number, or a
// string holding one, becomes 0.
func (v Value) Float() float64 {
	f, _ := v.Numeric()
	return f
}

// Numeric is Float plus a flag telling whether the coercion succeeded.
// Missing and null values report false.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return finiteOrZero(v.num)
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return finiteOrZero(f)
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func finiteOrZero(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// integral returns v as an int when it is a number without a fractional part.
func (v Value) integral() (int, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if math.IsNaN(v.num) || math.IsInf(v.num, 0) || v.num != math.Trunc(v.num) {
		return 0, false
	}
	return int(v.num), true
}

// Text renders v as a grouping key. Missing and null values have no key.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindTime:
		return FormatDate(v.t), true
	case KindOther:
		return string(v.raw), true
	default:
		return "", false
	}
}

// UnmarshalJSON accepts any JSON value; it only fails on malformed input.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = NullValue()
		return nil
	}
	switch data[0] {
	case 'n':
		*v = NullValue()
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '{', '[':
		*v = Value{kind: KindOther, raw: append(json.RawMessage(nil), data...)}
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return err
		}
		*v = NumberValue(f)
	}
	return nil
}

// MarshalJSON writes v back in wire form. Timestamps are rendered in the
// DD-Mon-YY convention so that a round trip parses to the same day.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(FormatDate(v.t))
	case KindOther:
		return v.raw, nil
	default:
		return []byte("null"), nil
	}
}
