package packet

import (
	"time"

	"github.com/danmuck/crosspacket/internal/protocol/schema"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

// Typed accessors. Getters report false when the field is absent, null or
// of another kind.

func (p *Packet) SetInt(name string, i int64) error { return p.Set(name, value.Int(i)) }

func (p *Packet) Int(name string) (int64, bool) {
	i, err := p.Get(name).Int()
	return i, err == nil
}

// SetFloat stores f at the declared width of the field.
func (p *Packet) SetFloat(name string, f float64) error { return p.Set(name, value.Float64(f)) }

func (p *Packet) Float(name string) (float64, bool) {
	f, err := p.Get(name).Float()
	return f, err == nil
}

func (p *Packet) SetText(name, s string) error { return p.Set(name, value.Text(s)) }

func (p *Packet) Text(name string) (string, bool) {
	s, err := p.Get(name).Text()
	return s, err == nil
}

func (p *Packet) SetBool(name string, b bool) error { return p.Set(name, value.Bool(b)) }

func (p *Packet) Bool(name string) (bool, bool) {
	b, err := p.Get(name).Bool()
	return b, err == nil
}

// SetBytes stores a copy of b. A nil slice is stored as empty bytes, not
// null.
func (p *Packet) SetBytes(name string, b []byte) error { return p.Set(name, value.Bytes(b)) }

func (p *Packet) BytesField(name string) ([]byte, bool) {
	b, err := p.Get(name).Bytes()
	return b, err == nil
}

// SetTime stores t in the datetime wire form.
func (p *Packet) SetTime(name string, t time.Time) error {
	return p.Set(name, value.Text(schema.FormatDateTime(t)))
}

func (p *Packet) Time(name string) (time.Time, bool) {
	s, ok := p.Text(name)
	if !ok {
		return time.Time{}, false
	}
	t, err := schema.ParseDateTime(s)
	return t, err == nil
}

func (p *Packet) SetTimeOfDay(name string, t schema.TimeOfDay) error {
	return p.Set(name, value.Text(t.String()))
}

func (p *Packet) TimeOfDay(name string) (schema.TimeOfDay, bool) {
	s, ok := p.Text(name)
	if !ok {
		return schema.TimeOfDay{}, false
	}
	t, err := schema.ParseTimeOfDay(s)
	return t, err == nil
}
