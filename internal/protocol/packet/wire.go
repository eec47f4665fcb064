package packet

import (
	"errors"
	"fmt"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/binwire"
	"github.com/danmuck/crosspacket/internal/protocol/schema"
	"github.com/danmuck/crosspacket/internal/protocol/textwire"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

var ErrUnknownCodec = errors.New("packet: unknown codec")

// Encode validates the packet and writes it with codec c.
func (p *Packet) Encode(c Codec) ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if c == Binary {
		return binwire.Pack(p.tree(true))
	}
	return textwire.Encode(p.tree(false))
}

// Decode reads one packet of schema s with default limits.
func Decode(c Codec, data []byte, s *schema.Schema) (*Packet, error) {
	return DecodeWithLimits(c, data, s, protocol.DefaultLimits())
}

func DecodeWithLimits(c Codec, data []byte, s *schema.Schema, limits protocol.Limits) (*Packet, error) {
	tree, err := Parse(c, data, limits)
	if err != nil {
		return nil, err
	}
	return FromTree(tree, s, limits)
}

// Parse decodes wire bytes into the generic tree without applying a schema.
func Parse(c Codec, data []byte, limits protocol.Limits) (value.Value, error) {
	switch c {
	case Text:
		return textwire.Decode(data, limits)
	case Binary:
		return binwire.Unpack(data, limits)
	}
	return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
}

// TypeOf reads the discriminator of a decoded tree.
func TypeOf(tree value.Value) (string, error) {
	if tree.Kind() != value.KindMapping {
		return "", protocol.ErrNotMapping
	}
	raw, ok := tree.Field(schema.Discriminator)
	if !ok {
		return "", protocol.ErrMissingType
	}
	typeID, err := raw.Text()
	if err != nil {
		return "", fmt.Errorf("%w: discriminator is %s", protocol.ErrMissingType, raw.Kind())
	}
	return typeID, nil
}

// FromTree applies schema s to a decoded tree. Declared fields are coerced;
// unknown keys are dropped; a missing required field fails.
func FromTree(tree value.Value, s *schema.Schema, limits protocol.Limits) (*Packet, error) {
	typeID, err := TypeOf(tree)
	if err != nil {
		return nil, err
	}
	if typeID != s.TypeID() {
		return nil, fmt.Errorf("%w: got %q want %q", protocol.ErrTypeMismatch, typeID, s.TypeID())
	}
	limits = limits.Normalize()
	p := New(s)
	for _, f := range s.Fields() {
		raw, ok := tree.Field(f.Wire)
		if !ok {
			if f.Optional {
				continue
			}
			return nil, protocol.Missing(typeID, f.Wire)
		}
		v, err := s.Coerce(f, raw, limits)
		if err != nil {
			return nil, err
		}
		p.values[f.Name] = v
	}
	return p, nil
}
