package value

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
)

// From converts a Go value into a Value.
//
// Supported: nil, Value, bool, every int and uint width, float32, float64,
// string, []byte, slices, arrays, maps and pointers to any of these.
// Anything else goes through Stringify and becomes Text. From never fails.
func From(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Value:
		if t == nil {
			return Null()
		}
		return *t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return fromUint(uint64(t), x)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return fromUint(t, x)
	case float32:
		return Float32(t)
	case float64:
		return Float64(t)
	case string:
		return Text(t)
	case []byte:
		return Bytes(t)
	case []Value:
		return Seq(t...)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = From(e)
		}
		return Value{kind: KindSequence, seq: items}
	case map[string]any:
		pairs := make([]Pair, 0, len(t))
		for k, e := range t {
			pairs = append(pairs, Pair{Key: Text(k), Value: From(e)})
		}
		return Value{kind: KindMapping, pairs: pairs}
	}
	return fromReflect(reflect.ValueOf(x), x)
}

func fromUint(u uint64, orig any) Value {
	if u > math.MaxInt64 {
		return Stringify(orig)
	}
	return Int(int64(u))
}

func fromReflect(rv reflect.Value, orig any) Value {
	// Named types with their own text form keep it, e.g. time.Time.
	if _, ok := orig.(encoding.TextMarshaler); ok {
		return Stringify(orig)
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return From(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint(), orig)
	case reflect.Float32:
		return Float32(float32(rv.Float()))
	case reflect.Float64:
		return Float64(rv.Float())
	case reflect.String:
		return Text(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null()
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return Value{kind: KindBytes, raw: buf}
		}
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = From(rv.Index(i).Interface())
		}
		return Value{kind: KindSequence, seq: items}
	case reflect.Map:
		if rv.IsNil() {
			return Null()
		}
		pairs := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, Pair{Key: From(iter.Key().Interface()), Value: From(iter.Value().Interface())})
		}
		return Value{kind: KindMapping, pairs: pairs}
	}
	return Stringify(orig)
}

// Stringify is the fallback for producer-side types outside the value model:
// the canonical string form becomes Text. The conversion is lossy on
// purpose so that encoding never fails on an unrecognized type.
//
// Preference order: encoding.TextMarshaler, fmt.Stringer, fmt.Sprint.
func Stringify(x any) Value {
	if m, ok := x.(encoding.TextMarshaler); ok {
		if b, err := m.MarshalText(); err == nil {
			return Text(string(b))
		}
	}
	if s, ok := x.(fmt.Stringer); ok {
		return Text(s.String())
	}
	return Text(fmt.Sprint(x))
}

// Native converts v back into plain Go values: nil, bool, int64, float32,
// float64, string, []byte and []any. A Mapping becomes map[string]any when
// every key is Text and a [][2]any key/value list otherwise.
func Native(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt64:
		return v.i
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindText:
		return v.s
	case KindBytes:
		buf := make([]byte, len(v.raw))
		copy(buf, v.raw)
		return buf
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, e := range v.seq {
			out[i] = Native(e)
		}
		return out
	case KindMapping:
		if textKeys(v.pairs) {
			out := make(map[string]any, len(v.pairs))
			for _, p := range v.pairs {
				out[p.Key.s] = Native(p.Value)
			}
			return out
		}
		out := make([][2]any, len(v.pairs))
		for i, p := range v.pairs {
			out[i] = [2]any{Native(p.Key), Native(p.Value)}
		}
		return out
	}
	return nil
}

func textKeys(pairs []Pair) bool {
	for _, p := range pairs {
		if p.Key.kind != KindText {
			return false
		}
	}
	return true
}
