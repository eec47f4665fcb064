// Package value defines the closed Value union exchanged between packet
// fields and the wire codecs.
//
// A Value is one of nine variants: Null, Bool, Int64, Float32, Float64,
// Text, Bytes, Sequence and Mapping. Sequence and Mapping nest arbitrarily.
// Mapping keys are Values themselves, not only Text.
//
// Values are immutable once built; constructors copy caller slices.
package value

import (
	"errors"
	"fmt"
)

// Kind selects a Value variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat32
	KindFloat64
	KindText
	KindBytes
	KindSequence
	KindMapping
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindInt64:    "int64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindText:     "text",
	KindBytes:    "bytes",
	KindSequence: "sequence",
	KindMapping:  "mapping",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind name produced by Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindNull, false
}

var ErrKindMismatch = errors.New("value: kind mismatch")

// Pair is one Mapping entry.
type Pair struct {
	Key   Value
	Value Value
}

// Value is the tagged union. The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	raw   []byte
	seq   []Value
	pairs []Pair
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt64, i: i} }

func Float32(f float32) Value { return Value{kind: KindFloat32, f: float64(f)} }

func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

func Text(s string) Value { return Value{kind: KindText, s: s} }

// Bytes copies b. A nil slice yields a zero-length Bytes, never Null.
func Bytes(b []byte) Value {
	buf := make([]byte, len(b))
	copy(buf, b)
	return Value{kind: KindBytes, raw: buf}
}

// Seq builds a Sequence. The element slice is copied.
func Seq(items ...Value) Value {
	buf := make([]Value, len(items))
	copy(buf, items)
	return Value{kind: KindSequence, seq: buf}
}

// Map builds a Mapping from pairs in the given order.
func Map(pairs ...Pair) Value {
	buf := make([]Pair, len(pairs))
	copy(buf, pairs)
	return Value{kind: KindMapping, pairs: buf}
}

// TextMap builds a Mapping with Text keys from a Go map. Entry order follows
// Go map iteration and is not significant.
func TextMap(m map[string]Value) Value {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{Key: Text(k), Value: v})
	}
	return Value{kind: KindMapping, pairs: pairs}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, ErrKindMismatch
	}
	return v.b, nil
}

func (v Value) Int() (int64, error) {
	if v.kind != KindInt64 {
		return 0, ErrKindMismatch
	}
	return v.i, nil
}

// Float returns either float variant widened to float64.
func (v Value) Float() (float64, error) {
	if v.kind != KindFloat32 && v.kind != KindFloat64 {
		return 0, ErrKindMismatch
	}
	return v.f, nil
}

func (v Value) Text() (string, error) {
	if v.kind != KindText {
		return "", ErrKindMismatch
	}
	return v.s, nil
}

// Bytes returns a copy of the payload.
func (v Value) Bytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, ErrKindMismatch
	}
	buf := make([]byte, len(v.raw))
	copy(buf, v.raw)
	return buf, nil
}

// Items returns the Sequence elements. The slice must not be modified.
func (v Value) Items() ([]Value, error) {
	if v.kind != KindSequence {
		return nil, ErrKindMismatch
	}
	return v.seq, nil
}

// Pairs returns the Mapping entries. The slice must not be modified.
func (v Value) Pairs() ([]Pair, error) {
	if v.kind != KindMapping {
		return nil, ErrKindMismatch
	}
	return v.pairs, nil
}

// Len is the element count of a Sequence or Mapping and the byte length of
// Text and Bytes. Scalars report 0.
func (v Value) Len() int {
	switch v.kind {
	case KindText:
		return len(v.s)
	case KindBytes:
		return len(v.raw)
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return len(v.pairs)
	default:
		return 0
	}
}

// Lookup finds the entry of a Mapping whose key equals key.
func (v Value) Lookup(key Value) (Value, bool) {
	for _, p := range v.pairs {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Field finds a Mapping entry by Text key.
func (v Value) Field(name string) (Value, bool) {
	for _, p := range v.pairs {
		if p.Key.kind == KindText && p.Key.s == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindFloat32:
		return fmt.Sprintf("%g", float32(v.f))
	case KindFloat64:
		return fmt.Sprintf("%g", v.f)
	case KindText:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(v.raw))
	case KindSequence:
		return fmt.Sprintf("sequence[%d]", len(v.seq))
	case KindMapping:
		return fmt.Sprintf("mapping[%d]", len(v.pairs))
	default:
		return v.kind.String()
	}
}
