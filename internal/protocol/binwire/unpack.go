package binwire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

// Unpack decodes exactly one binary document into a Value tree.
//
// A mapping key that repeats an earlier key of the same mapping (compared
// with value.Equal) is ErrDuplicateKey.
//
// Untrusted input is bounded: nesting depth, element counts and str/bin
// lengths are checked against limits and against the bytes left in data
// before anything is allocated.
func Unpack(data []byte, limits protocol.Limits) (value.Value, error) {
	r := bytes.NewReader(data)
	// bytes.Reader is an io.ByteScanner, so the decoder reads r directly
	// without buffering and r.Len() is the true remainder.
	u := &unpacker{r: r, dec: msgpack.NewDecoder(r), limits: limits.Normalize()}
	v, err := u.value(0)
	if err != nil {
		return value.Value{}, err
	}
	if r.Len() > 0 {
		return value.Value{}, protocol.ErrTrailingData
	}
	return v, nil
}

type unpacker struct {
	r      *bytes.Reader
	dec    *msgpack.Decoder
	limits protocol.Limits
}

func wrap(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return protocol.ErrTruncated
	}
	return fmt.Errorf("%w: %v", protocol.ErrDecode, err)
}

func (u *unpacker) value(depth int) (value.Value, error) {
	c, err := u.dec.PeekCode()
	if err != nil {
		return value.Value{}, wrap(err)
	}
	switch {
	case c == msgpcode.Nil:
		if err := u.dec.DecodeNil(); err != nil {
			return value.Value{}, wrap(err)
		}
		return value.Null(), nil
	case c == msgpcode.True || c == msgpcode.False:
		b, err := u.dec.DecodeBool()
		if err != nil {
			return value.Value{}, wrap(err)
		}
		return value.Bool(b), nil
	case c == msgpcode.Uint64:
		n, err := u.dec.DecodeUint64()
		if err != nil {
			return value.Value{}, wrap(err)
		}
		if n > math.MaxInt64 {
			return value.Value{}, protocol.ErrIntOverflow
		}
		return value.Int(int64(n)), nil
	case msgpcode.IsFixedNum(c),
		c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32,
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		i, err := u.dec.DecodeInt64()
		if err != nil {
			return value.Value{}, wrap(err)
		}
		return value.Int(i), nil
	case c == msgpcode.Float:
		f, err := u.dec.DecodeFloat32()
		if err != nil {
			return value.Value{}, wrap(err)
		}
		return value.Float32(f), nil
	case c == msgpcode.Double:
		f, err := u.dec.DecodeFloat64()
		if err != nil {
			return value.Value{}, wrap(err)
		}
		return value.Float64(f), nil
	case msgpcode.IsFixedString(c), c == msgpcode.Str8, c == msgpcode.Str16, c == msgpcode.Str32:
		b, err := u.block(u.limits.MaxStringLength)
		if err != nil {
			return value.Value{}, err
		}
		return value.Text(string(b)), nil
	case c == msgpcode.Bin8, c == msgpcode.Bin16, c == msgpcode.Bin32:
		b, err := u.block(u.limits.MaxBytesLength)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bytes(b), nil
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		return u.array(depth + 1)
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		return u.mapping(depth + 1)
	}
	return value.Value{}, fmt.Errorf("%w: code 0x%02x", protocol.ErrUnsupportedType, c)
}

// block reads a str or bin header and its payload.
func (u *unpacker) block(max int) ([]byte, error) {
	n, err := u.dec.DecodeBytesLen()
	if err != nil {
		return nil, wrap(err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative block length", protocol.ErrDecode)
	}
	if n > max {
		return nil, protocol.ErrLengthExceeded
	}
	if n > u.r.Len() {
		return nil, protocol.ErrTruncated
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(u.r, buf); err != nil {
		return nil, wrap(err)
	}
	return buf, nil
}

func (u *unpacker) array(depth int) (value.Value, error) {
	if depth > u.limits.MaxDepth {
		return value.Value{}, protocol.ErrDepthExceeded
	}
	n, err := u.dec.DecodeArrayLen()
	if err != nil {
		return value.Value{}, wrap(err)
	}
	if n > u.limits.MaxListSize {
		return value.Value{}, protocol.ErrLengthExceeded
	}
	// Every element needs at least one byte.
	if n > u.r.Len() {
		return value.Value{}, protocol.ErrTruncated
	}
	items := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		item, err := u.value(depth)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, item)
	}
	return value.Seq(items...), nil
}

func (u *unpacker) mapping(depth int) (value.Value, error) {
	if depth > u.limits.MaxDepth {
		return value.Value{}, protocol.ErrDepthExceeded
	}
	n, err := u.dec.DecodeMapLen()
	if err != nil {
		return value.Value{}, wrap(err)
	}
	if n > u.limits.MaxMapSize {
		return value.Value{}, protocol.ErrLengthExceeded
	}
	// Every pair needs at least two bytes.
	if n > u.r.Len()/2 {
		return value.Value{}, protocol.ErrTruncated
	}
	pairs := make([]value.Pair, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		k, err := u.value(depth)
		if err != nil {
			return value.Value{}, err
		}
		id := value.Identity(k)
		if _, dup := seen[id]; dup {
			return value.Value{}, fmt.Errorf("%w: %s", protocol.ErrDuplicateKey, k)
		}
		seen[id] = struct{}{}
		v, err := u.value(depth)
		if err != nil {
			return value.Value{}, err
		}
		pairs = append(pairs, value.Pair{Key: k, Value: v})
	}
	return value.Map(pairs...), nil
}
