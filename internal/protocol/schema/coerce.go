package schema

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

// Coerce narrows or widens v to the declared type of f. Both codecs and the
// Packet setters go through it, so a field accepts the same inputs however
// it arrives.
//
// Accepted conversions: Int64 to either float width; an integral float to
// Int64; numeric Text to a number; base64 Text to Bytes; Float64 to Float32
// when it stays finite. Text with a timestamp format must parse. Null is
// accepted only for optional fields.
func (s *Schema) Coerce(f FieldSpec, v value.Value, limits protocol.Limits) (value.Value, error) {
	if v.IsNull() {
		if f.Optional {
			return v, nil
		}
		return value.Value{}, protocol.Coercion(s.typeID, f.Wire, "null for required field")
	}
	out, reason := coerce(f, v, limits)
	if reason != "" {
		return value.Value{}, protocol.Coercion(s.typeID, f.Wire, reason)
	}
	return out, nil
}

// Accepts reports whether a value of kind k has any conversion path to f.
// Null is always accepted here; required-ness is checked by Coerce.
func (f FieldSpec) Accepts(k value.Kind) bool {
	if k == value.KindNull {
		return true
	}
	switch f.Kind {
	case value.KindInt64, value.KindFloat32, value.KindFloat64:
		return k == value.KindInt64 || k == value.KindFloat32 || k == value.KindFloat64 || k == value.KindText
	case value.KindBytes:
		return k == value.KindBytes || k == value.KindText
	}
	return k == f.Kind
}

func coerce(f FieldSpec, v value.Value, limits protocol.Limits) (value.Value, string) {
	switch f.Kind {
	case value.KindBool:
		if v.Kind() == value.KindBool {
			return v, ""
		}
	case value.KindInt64:
		return toInt(v)
	case value.KindFloat32, value.KindFloat64:
		return toFloat(f.Kind, v, limits)
	case value.KindText:
		if v.Kind() != value.KindText {
			break
		}
		s, _ := v.Text()
		switch f.Format {
		case FormatDateTimeText:
			if _, err := ParseDateTime(s); err != nil {
				return value.Value{}, err.Error()
			}
		case FormatTimeOfDayText:
			if _, err := ParseTimeOfDay(s); err != nil {
				return value.Value{}, err.Error()
			}
		}
		return v, ""
	case value.KindBytes:
		switch v.Kind() {
		case value.KindBytes:
			return v, ""
		case value.KindText:
			s, _ := v.Text()
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return value.Value{}, "invalid base64 text"
			}
			return value.Bytes(b), ""
		}
	case value.KindSequence:
		if v.Kind() != value.KindSequence {
			break
		}
		if f.Elem == value.KindNull {
			return v, ""
		}
		items, _ := v.Items()
		elem := FieldSpec{Kind: f.Elem}
		out := make([]value.Value, len(items))
		for i, item := range items {
			if item.IsNull() {
				return value.Value{}, fmt.Sprintf("element %d: null in %s", i, f.TypeName())
			}
			c, reason := coerce(elem, item, limits)
			if reason != "" {
				return value.Value{}, fmt.Sprintf("element %d: %s", i, reason)
			}
			out[i] = c
		}
		return value.Seq(out...), ""
	case value.KindMapping:
		if v.Kind() != value.KindMapping {
			break
		}
		if f.TextKeys {
			pairs, _ := v.Pairs()
			for _, p := range pairs {
				if p.Key.Kind() != value.KindText {
					return value.Value{}, fmt.Sprintf("mapping key %s is not Text", p.Key.Kind())
				}
			}
		}
		return v, ""
	}
	return value.Value{}, fmt.Sprintf("expected %s, got %s", f.TypeName(), v.Kind())
}

const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

func toInt(v value.Value) (value.Value, string) {
	switch v.Kind() {
	case value.KindInt64:
		return v, ""
	case value.KindFloat32, value.KindFloat64:
		f, _ := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return value.Value{}, fmt.Sprintf("%v is not integral", f)
		}
		if f < minInt64Float || f >= maxInt64Float {
			return value.Value{}, fmt.Sprintf("%v overflows Int64", f)
		}
		return value.Int(int64(f)), ""
	case value.KindText:
		s, _ := v.Text()
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value.Value{}, fmt.Sprintf("text %q is not an integer", s)
		}
		return value.Int(i), ""
	}
	return value.Value{}, fmt.Sprintf("expected Int64, got %s", v.Kind())
}

func toFloat(kind value.Kind, v value.Value, limits protocol.Limits) (value.Value, string) {
	var f float64
	switch v.Kind() {
	case value.KindInt64:
		i, _ := v.Int()
		f = float64(i)
	case value.KindFloat32, value.KindFloat64:
		f, _ = v.Float()
	case value.KindText:
		s, _ := v.Text()
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return value.Value{}, fmt.Sprintf("text %q is not a number", s)
		}
		f = parsed
	default:
		return value.Value{}, fmt.Sprintf("expected %s, got %s", kind, v.Kind())
	}
	if math.IsNaN(f) && !limits.AllowNaN {
		return value.Value{}, "NaN not allowed"
	}
	if math.IsInf(f, 0) && !limits.AllowInfinity {
		return value.Value{}, "infinity not allowed"
	}
	if kind == value.KindFloat64 {
		return value.Float64(f), ""
	}
	narrow := float32(f)
	if math.IsInf(float64(narrow), 0) && !math.IsInf(f, 0) {
		return value.Value{}, fmt.Sprintf("%v overflows Float32", f)
	}
	return value.Float32(narrow), ""
}
