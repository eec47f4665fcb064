package textwire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

// Decode parses one text document into a Value tree.
//
// Integer literals become Int64 (Float64 when outside the int64 range),
// literals with a fraction or exponent become Float64, strings become Text.
// Object key order is kept; a repeated key is ErrDuplicateKey.
func Decode(data []byte, limits protocol.Limits) (value.Value, error) {
	d := &decoder{dec: json.NewDecoder(bytes.NewReader(data)), limits: limits.Normalize()}
	d.dec.UseNumber()
	v, err := d.value(0)
	if err != nil {
		return value.Value{}, err
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		return value.Value{}, protocol.ErrTrailingData
	}
	return v, nil
}

// DecodeLenient accepts JSONC input (comments, trailing commas) for
// hand-written documents.
func DecodeLenient(data []byte, limits protocol.Limits) (value.Value, error) {
	return Decode(jsonc.ToJSON(data), limits)
}

type decoder struct {
	dec    *json.Decoder
	limits protocol.Limits
}

func (d *decoder) token() (json.Token, error) {
	tok, err := d.dec.Token()
	if err == nil {
		return tok, nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, protocol.ErrTruncated
	}
	return nil, fmt.Errorf("%w: %v", protocol.ErrDecode, err)
}

func (d *decoder) value(depth int) (value.Value, error) {
	tok, err := d.token()
	if err != nil {
		return value.Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case json.Number:
		return number(t)
	case string:
		if len(t) > d.limits.MaxStringLength {
			return value.Value{}, protocol.ErrLengthExceeded
		}
		return value.Text(t), nil
	case json.Delim:
		if depth+1 > d.limits.MaxDepth {
			return value.Value{}, protocol.ErrDepthExceeded
		}
		switch t {
		case '[':
			return d.array(depth + 1)
		case '{':
			return d.object(depth + 1)
		}
	}
	return value.Value{}, fmt.Errorf("%w: unexpected token %v", protocol.ErrDecode, tok)
}

func (d *decoder) array(depth int) (value.Value, error) {
	var items []value.Value
	for d.dec.More() {
		if len(items) >= d.limits.MaxListSize {
			return value.Value{}, protocol.ErrLengthExceeded
		}
		item, err := d.value(depth)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, item)
	}
	if _, err := d.token(); err != nil {
		return value.Value{}, err
	}
	return value.Seq(items...), nil
}

func (d *decoder) object(depth int) (value.Value, error) {
	var pairs []value.Pair
	seen := make(map[string]struct{})
	for d.dec.More() {
		tok, err := d.token()
		if err != nil {
			return value.Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return value.Value{}, fmt.Errorf("%w: object key %v", protocol.ErrDecode, tok)
		}
		if len(key) > d.limits.MaxStringLength {
			return value.Value{}, protocol.ErrLengthExceeded
		}
		if _, dup := seen[key]; dup {
			return value.Value{}, fmt.Errorf("%w: %q", protocol.ErrDuplicateKey, key)
		}
		v, err := d.value(depth)
		if err != nil {
			return value.Value{}, err
		}
		if len(pairs) >= d.limits.MaxMapSize {
			return value.Value{}, protocol.ErrLengthExceeded
		}
		seen[key] = struct{}{}
		pairs = append(pairs, value.Pair{Key: value.Text(key), Value: v})
	}
	if _, err := d.token(); err != nil {
		return value.Value{}, err
	}
	return value.Map(pairs...), nil
}

func number(n json.Number) (value.Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: number %q", protocol.ErrDecode, s)
	}
	return value.Float64(f), nil
}
