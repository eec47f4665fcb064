// Package binwire is the compact binary codec: MessagePack over the Value
// model.
//
// Every composite carries a type+length header and every scalar an explicit
// type tag. Bytes travel as bin blocks, never as base64 text. Mapping keys
// may be any Value.
package binwire

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

type encoder struct {
	buf bytes.Buffer
	enc *msgpack.Encoder
}

func newEncoder() *encoder {
	e := &encoder{}
	e.enc = msgpack.NewEncoder(&e.buf)
	return e
}

// Pack renders v as a binary document.
func Pack(v value.Value) ([]byte, error) {
	e := newEncoder()
	if err := e.value(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// value packs v recursively, dispatching on its variant.
func (e *encoder) value(v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		return e.enc.EncodeNil()
	case value.KindBool:
		b, _ := v.Bool()
		return e.enc.EncodeBool(b)
	case value.KindInt64:
		i, _ := v.Int()
		return e.enc.EncodeInt(i)
	case value.KindFloat32:
		f, _ := v.Float()
		return e.enc.EncodeFloat32(float32(f))
	case value.KindFloat64:
		f, _ := v.Float()
		return e.enc.EncodeFloat64(f)
	case value.KindText:
		s, _ := v.Text()
		return e.enc.EncodeString(s)
	case value.KindBytes:
		// Value.Bytes never returns nil, so this is a bin block and not nil.
		b, _ := v.Bytes()
		return e.enc.EncodeBytes(b)
	case value.KindSequence:
		items, _ := v.Items()
		if err := e.enc.EncodeArrayLen(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := e.value(item); err != nil {
				return err
			}
		}
		return nil
	case value.KindMapping:
		pairs, _ := v.Pairs()
		if err := e.enc.EncodeMapLen(len(pairs)); err != nil {
			return err
		}
		for _, p := range pairs {
			if err := e.value(p.Key); err != nil {
				return err
			}
			if err := e.value(p.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: kind %s", protocol.ErrSchemaViolation, v.Kind())
}
