// Package textwire is the self-describing text codec: a JSON literal tree
// over the Value model.
//
// Grammar notes:
// - Bytes are quoted standard padded base64; the decoder hands them back as
//   Text and the schema layer turns them into Bytes where declared.
// - Floats always carry a fraction or exponent so they decode as floats.
// - NaN and ±Inf have no JSON literal and travel as the strings "NaN",
//   "Infinity" and "-Infinity".
// - Mapping keys must be Text. Null, Bool, Int64 and float keys are written
//   in their canonical text form; other keys fail with ErrUnsupportedKey, as
//   does a key whose text form repeats an earlier key of the same mapping.
// - Text must be valid UTF-8; anything else fails with ErrInvalidText.
//
// Open (undeclared or untyped) fields lose kind detail on a text round
// trip: bytes, NaN and ±Inf come back as Text, Float32 comes back as
// Float64, and non-Text mapping keys come back as Text. Declared fields are
// restored by the schema coercion.
package textwire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

const (
	NaNText    = "NaN"
	PosInfText = "Infinity"
	NegInfText = "-Infinity"
)

type encoder struct {
	buf     bytes.Buffer
	scratch bytes.Buffer
	str     *json.Encoder
}

func newEncoder() *encoder {
	e := &encoder{}
	e.str = json.NewEncoder(&e.scratch)
	e.str.SetEscapeHTML(false)
	return e
}

// Encode renders v as a text document.
func Encode(v value.Value) ([]byte, error) {
	e := newEncoder()
	if err := e.value(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// key writes an object key. first reports whether it is the first entry.
func (e *encoder) key(name string, first bool) error {
	if !first {
		e.buf.WriteByte(',')
	}
	if err := e.writeString(name); err != nil {
		return err
	}
	e.buf.WriteByte(':')
	return nil
}

// value writes v recursively.
func (e *encoder) value(v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		e.buf.WriteString("null")
	case value.KindBool:
		b, _ := v.Bool()
		e.buf.WriteString(strconv.FormatBool(b))
	case value.KindInt64:
		i, _ := v.Int()
		e.buf.WriteString(strconv.FormatInt(i, 10))
	case value.KindFloat32:
		f, _ := v.Float()
		return e.float(f, 32)
	case value.KindFloat64:
		f, _ := v.Float()
		return e.float(f, 64)
	case value.KindText:
		s, _ := v.Text()
		return e.writeString(s)
	case value.KindBytes:
		b, _ := v.Bytes()
		return e.writeString(base64.StdEncoding.EncodeToString(b))
	case value.KindSequence:
		items, _ := v.Items()
		e.buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(item); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case value.KindMapping:
		pairs, _ := v.Pairs()
		seen := make(map[string]struct{}, len(pairs))
		e.buf.WriteByte('{')
		for i, p := range pairs {
			key, err := KeyText(p.Key)
			if err != nil {
				return err
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: key %s collides with an earlier key as %q", protocol.ErrUnsupportedKey, p.Key, key)
			}
			seen[key] = struct{}{}
			if err := e.key(key, i == 0); err != nil {
				return err
			}
			if err := e.value(p.Value); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: kind %s", protocol.ErrSchemaViolation, v.Kind())
	}
	return nil
}

// KeyText renders a Mapping key for the text grammar.
func KeyText(k value.Value) (string, error) {
	switch k.Kind() {
	case value.KindText:
		s, _ := k.Text()
		return s, nil
	case value.KindNull:
		return "null", nil
	case value.KindBool:
		b, _ := k.Bool()
		return strconv.FormatBool(b), nil
	case value.KindInt64:
		i, _ := k.Int()
		return strconv.FormatInt(i, 10), nil
	case value.KindFloat32:
		f, _ := k.Float()
		return string(appendFloat(nil, f, 32)), nil
	case value.KindFloat64:
		f, _ := k.Float()
		return string(appendFloat(nil, f, 64)), nil
	}
	return "", fmt.Errorf("%w: %s", protocol.ErrUnsupportedKey, k.Kind())
}

func (e *encoder) float(f float64, bits int) error {
	switch {
	case math.IsNaN(f):
		return e.writeString(NaNText)
	case math.IsInf(f, 1):
		return e.writeString(PosInfText)
	case math.IsInf(f, -1):
		return e.writeString(NegInfText)
	}
	e.buf.Write(appendFloat(nil, f, bits))
	return nil
}

// appendFloat uses plain decimals for 1e-6 <= |f| < 1e21 and exponent form
// outside that range. Integral values get a ".0" suffix.
func appendFloat(b []byte, f float64, bits int) []byte {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.AppendFloat(b, f, 'e', -1, bits)
	}
	start := len(b)
	b = strconv.AppendFloat(b, f, 'f', -1, bits)
	if bytes.IndexByte(b[start:], '.') < 0 {
		b = append(b, '.', '0')
	}
	return b
}

func (e *encoder) writeString(s string) error {
	if !utf8.ValidString(s) {
		return protocol.ErrInvalidText
	}
	e.scratch.Reset()
	if err := e.str.Encode(s); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrSchemaViolation, err)
	}
	e.buf.Write(bytes.TrimSuffix(e.scratch.Bytes(), []byte{'\n'}))
	return nil
}
