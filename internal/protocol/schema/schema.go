// Package schema holds packet type descriptors: the ordered field table of
// each packet type, the coercion policy shared by both codecs, and the
// catalog of built-in packet types.
package schema

import (
	"fmt"

	"github.com/danmuck/crosspacket/internal/protocol/value"
)

// Discriminator is the wire key carrying the packet type id. It is always
// the first entry of an encoded packet.
const Discriminator = "packetType"

// Format refines a Text field with a timestamp representation.
type Format uint8

const (
	FormatNone Format = iota
	FormatDateTimeText
	FormatTimeOfDayText
)

func (f Format) String() string {
	switch f {
	case FormatDateTimeText:
		return "datetime"
	case FormatTimeOfDayText:
		return "time"
	}
	return ""
}

// FieldSpec describes one declared field.
//
// Name is the in-memory name used by Packet accessors; Wire is the key on
// the wire. Elem constrains Sequence elements; KindNull leaves them open.
// TextKeys requires every Mapping key to be Text.
type FieldSpec struct {
	Name     string
	Wire     string
	Kind     value.Kind
	Format   Format
	Elem     value.Kind
	TextKeys bool
	Optional bool
}

// Field declares a required field of kind.
func Field(name, wire string, kind value.Kind) FieldSpec {
	return FieldSpec{Name: name, Wire: wire, Kind: kind}
}

func (f FieldSpec) Opt() FieldSpec {
	f.Optional = true
	return f
}

// DateTime makes f an offset-qualified date-time carried as Text.
func (f FieldSpec) DateTime() FieldSpec {
	f.Kind = value.KindText
	f.Format = FormatDateTimeText
	return f
}

// TimeOfDay makes f a bare HH:MM:SS[.fraction] time carried as Text.
func (f FieldSpec) TimeOfDay() FieldSpec {
	f.Kind = value.KindText
	f.Format = FormatTimeOfDayText
	return f
}

// Of constrains the elements of a Sequence field.
func (f FieldSpec) Of(elem value.Kind) FieldSpec {
	f.Elem = elem
	return f
}

// KeyedByText requires Text keys on a Mapping field.
func (f FieldSpec) KeyedByText() FieldSpec {
	f.TextKeys = true
	return f
}

// TypeName renders the declared type, e.g. "sequence<int64>" or
// "text(datetime)".
func (f FieldSpec) TypeName() string {
	name := f.Kind.String()
	switch {
	case f.Format != FormatNone:
		name += "(" + f.Format.String() + ")"
	case f.Kind == value.KindSequence && f.Elem != value.KindNull:
		name += "<" + f.Elem.String() + ">"
	case f.Kind == value.KindMapping && f.TextKeys:
		name += "<text>"
	}
	return name
}

// Schema is the immutable descriptor of one packet type.
type Schema struct {
	typeID string
	fields []FieldSpec
	byName map[string]int
	byWire map[string]int
}

// New validates and builds a schema. Field order is wire order.
func New(typeID string, fields ...FieldSpec) (*Schema, error) {
	if typeID == "" {
		return nil, fmt.Errorf("schema: empty type id")
	}
	s := &Schema{
		typeID: typeID,
		fields: append([]FieldSpec(nil), fields...),
		byName: make(map[string]int, len(fields)),
		byWire: make(map[string]int, len(fields)),
	}
	for i, f := range s.fields {
		if f.Name == "" || f.Wire == "" {
			return nil, fmt.Errorf("schema: %s: field %d has no name", typeID, i)
		}
		if f.Wire == Discriminator {
			return nil, fmt.Errorf("schema: %s: field %s uses the discriminator key", typeID, f.Name)
		}
		if f.Kind == value.KindNull {
			return nil, fmt.Errorf("schema: %s: field %s has no kind", typeID, f.Name)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate field name %s", typeID, f.Name)
		}
		if _, dup := s.byWire[f.Wire]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate wire name %s", typeID, f.Wire)
		}
		s.byName[f.Name] = i
		s.byWire[f.Wire] = i
	}
	return s, nil
}

// MustNew is New for package-level schema tables.
func MustNew(typeID string, fields ...FieldSpec) *Schema {
	s, err := New(typeID, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) TypeID() string { return s.typeID }

// Fields returns the declared fields in wire order.
func (s *Schema) Fields() []FieldSpec {
	return append([]FieldSpec(nil), s.fields...)
}

func (s *Schema) Len() int { return len(s.fields) }

// FieldByName looks a field up by its in-memory name.
func (s *Schema) FieldByName(name string) (FieldSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// FieldByWire looks a field up by its wire key.
func (s *Schema) FieldByWire(wire string) (FieldSpec, bool) {
	i, ok := s.byWire[wire]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}
