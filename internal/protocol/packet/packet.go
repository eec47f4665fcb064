// Package packet binds field values to a schema and moves them through
// either wire codec.
//
// Field state has three cases: absent, present-but-null and present with a
// value. The text codec writes absent optional fields as null; the binary
// codec leaves them out. Decoding keeps an optional field that is missing
// from the wire absent; Get reports it as Null either way.
package packet

import (
	"fmt"
	"sort"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/schema"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

// Packet is a schema-bound set of field values. It is not safe for
// concurrent mutation.
type Packet struct {
	schema *schema.Schema
	values map[string]value.Value
	extras []value.Pair
}

func New(s *schema.Schema) *Packet {
	return &Packet{schema: s, values: make(map[string]value.Value, s.Len())}
}

func (p *Packet) Schema() *schema.Schema { return p.schema }

func (p *Packet) TypeID() string { return p.schema.TypeID() }

func (p *Packet) field(name string) (schema.FieldSpec, error) {
	f, ok := p.schema.FieldByName(name)
	if !ok {
		return schema.FieldSpec{}, protocol.Violation(p.schema.TypeID(), name, "unknown field")
	}
	return f, nil
}

// Set stores v under the in-memory field name after coercing it to the
// declared type. A variant with no conversion path to the field is a
// schema violation; a convertible value that fails conversion is a
// coercion error.
func (p *Packet) Set(name string, v value.Value) error {
	f, err := p.field(name)
	if err != nil {
		return err
	}
	if !f.Accepts(v.Kind()) {
		return protocol.Violation(p.schema.TypeID(), f.Wire, fmt.Sprintf("expected %s, got %s", f.TypeName(), v.Kind()))
	}
	c, err := p.schema.Coerce(f, v, protocol.DefaultLimits())
	if err != nil {
		return err
	}
	p.values[name] = c
	return nil
}

// SetAny converts x with value.From and stores it.
func (p *Packet) SetAny(name string, x any) error {
	return p.Set(name, value.From(x))
}

// SetNull marks an optional field present-but-null.
func (p *Packet) SetNull(name string) error {
	return p.Set(name, value.Null())
}

// Clear makes a field absent.
func (p *Packet) Clear(name string) {
	delete(p.values, name)
}

// Has reports whether the field is present, null included.
func (p *Packet) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Get returns the field value, or Null when it is absent.
func (p *Packet) Get(name string) value.Value {
	return p.values[name]
}

// SetExtra attaches an undeclared entry that is written after the declared
// fields. Decoders without a matching field drop it.
func (p *Packet) SetExtra(key string, v value.Value) error {
	if key == schema.Discriminator {
		return protocol.Violation(p.schema.TypeID(), key, "extra key collides with the discriminator")
	}
	if _, ok := p.schema.FieldByWire(key); ok {
		return protocol.Violation(p.schema.TypeID(), key, "extra key collides with a declared field")
	}
	for i := range p.extras {
		if t, _ := p.extras[i].Key.Text(); t == key {
			p.extras[i].Value = v
			return nil
		}
	}
	p.extras = append(p.extras, value.Pair{Key: value.Text(key), Value: v})
	return nil
}

// Extras returns the undeclared entries in insertion order.
func (p *Packet) Extras() []value.Pair {
	return append([]value.Pair(nil), p.extras...)
}

// Validate checks that every required field holds a value.
func (p *Packet) Validate() error {
	for _, f := range p.schema.Fields() {
		if f.Optional {
			continue
		}
		v, ok := p.values[f.Name]
		if !ok || v.IsNull() {
			return protocol.Violation(p.schema.TypeID(), f.Wire, "missing required field")
		}
	}
	return nil
}

// tree lays the packet out as its wire mapping: discriminator first, then
// declared fields in schema order, then extras.
func (p *Packet) tree(omitAbsent bool) value.Value {
	pairs := make([]value.Pair, 0, 1+p.schema.Len()+len(p.extras))
	pairs = append(pairs, value.Pair{Key: value.Text(schema.Discriminator), Value: value.Text(p.schema.TypeID())})
	for _, f := range p.schema.Fields() {
		v, ok := p.values[f.Name]
		if !ok && omitAbsent {
			continue
		}
		pairs = append(pairs, value.Pair{Key: value.Text(f.Wire), Value: v})
	}
	pairs = append(pairs, p.extras...)
	return value.Map(pairs...)
}

// Native renders declared fields keyed by wire name for display. Absent
// fields map to nil.
func (p *Packet) Native() map[string]any {
	out := make(map[string]any, p.schema.Len())
	for _, f := range p.schema.Fields() {
		out[f.Wire] = value.Native(p.values[f.Name])
	}
	return out
}

// Present lists the in-memory names of present fields, sorted.
func (p *Packet) Present() []string {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal compares two packets field by field. Absent and null are equal;
// extras are ignored.
func Equal(a, b *Packet) bool {
	return equal(a, b, value.Equal)
}

// EqualApprox is Equal with floats compared within tol.
func EqualApprox(a, b *Packet, tol float64) bool {
	return equal(a, b, func(x, y value.Value) bool { return value.ApproxEqual(x, y, tol) })
}

func equal(a, b *Packet, eq func(x, y value.Value) bool) bool {
	if a.schema.TypeID() != b.schema.TypeID() {
		return false
	}
	for _, f := range a.schema.Fields() {
		if !eq(a.Get(f.Name), b.Get(f.Name)) {
			return false
		}
	}
	return true
}
