package textwire

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/value"
	"github.com/danmuck/crosspacket/internal/testutil/testlog"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	data, err := Encode(v)
	require.NoError(t, err)
	out, err := Decode(data, protocol.DefaultLimits())
	require.NoError(t, err, string(data))
	return out
}

func TestEncodeLiterals(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		in   value.Value
		want string
	}{
		{value.Null(), `null`},
		{value.Bool(true), `true`},
		{value.Int(-42), `-42`},
		{value.Float64(3), `3.0`},
		{value.Float64(0.1), `0.1`},
		{value.Float32(0.1), `0.1`},
		{value.Float64(1e21), `1e+21`},
		{value.Float64(1e-7), `1e-07`},
		{value.Float64(math.NaN()), `"NaN"`},
		{value.Float64(math.Inf(-1)), `"-Infinity"`},
		{value.Text("a\"b"), `"a\"b"`},
		{value.Text("<tag>"), `"<tag>"`},
		{value.Bytes([]byte{0x00, 0xff, 0x10}), `"AP8Q"`},
		{value.Bytes([]byte{0x01}), `"AQ=="`},
		{value.Seq(value.Int(1), value.Text("x")), `[1,"x"]`},
		{value.Map(value.Pair{Key: value.Text("b"), Value: value.Int(1)}, value.Pair{Key: value.Text("a"), Value: value.Null()}), `{"b":1,"a":null}`},
	}
	for _, tc := range cases {
		got, err := Encode(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(got))
	}
}

func TestEncodeScalarKeysAsText(t *testing.T) {
	testlog.Start(t)
	v := value.Map(
		value.Pair{Key: value.Int(1), Value: value.Text("one")},
		value.Pair{Key: value.Bool(false), Value: value.Text("no")},
		value.Pair{Key: value.Float64(2), Value: value.Text("two")},
	)
	got, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, `{"1":"one","false":"no","2.0":"two"}`, string(got))
}

func TestEncodeCompositeKeyRejected(t *testing.T) {
	testlog.Start(t)
	v := value.Map(value.Pair{Key: value.Seq(value.Int(1)), Value: value.Null()})
	_, err := Encode(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocol.ErrUnsupportedKey))
	assert.True(t, errors.Is(err, protocol.ErrSchemaViolation))
}

func TestDecodeNumberLiterals(t *testing.T) {
	testlog.Start(t)
	v, err := Decode([]byte(`[1, -0, 2.5, 1e3, 9223372036854775807, 9223372036854775808]`), protocol.DefaultLimits())
	require.NoError(t, err)
	items, err := v.Items()
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.True(t, value.Equal(items[0], value.Int(1)))
	assert.True(t, value.Equal(items[1], value.Int(0)))
	assert.True(t, value.Equal(items[2], value.Float64(2.5)))
	assert.True(t, value.Equal(items[3], value.Float64(1000)))
	assert.True(t, value.Equal(items[4], value.Int(math.MaxInt64)))
	assert.Equal(t, value.KindFloat64, items[5].Kind())
}

func TestRoundTripNestedTree(t *testing.T) {
	testlog.Start(t)
	in := value.Map(
		value.Pair{Key: value.Text("list"), Value: value.Seq(value.Int(1), value.Text("two"), value.Float64(3.0), value.Bool(true), value.Null())},
		value.Pair{Key: value.Text("nested"), Value: value.Map(
			value.Pair{Key: value.Text("deep"), Value: value.Seq(value.Seq(value.Map()))},
		)},
	)
	out := roundTrip(t, in)
	assert.True(t, value.Equal(in, out))
}

func TestRoundTripSpecialStrings(t *testing.T) {
	testlog.Start(t)
	for _, s := range []string{
		"",
		`Quote: "test" Backslash: \`,
		"tab\there\nnewline\r\n",
		"Hello World 日本語",
		"emoji 🎉 and 𝄞",
		"\u0000 control \u001f",
	} {
		out := roundTrip(t, value.Text(s))
		got, err := out.Text()
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestDecodeKeepsKeyOrder(t *testing.T) {
	testlog.Start(t)
	v, err := Decode([]byte(`{"z":1,"a":2,"m":3}`), protocol.DefaultLimits())
	require.NoError(t, err)
	pairs, err := v.Pairs()
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.True(t, value.Equal(pairs[0].Key, value.Text("z")))
	assert.True(t, value.Equal(pairs[1].Key, value.Text("a")))
	assert.True(t, value.Equal(pairs[2].Key, value.Text("m")))
}

func TestDecodeRejectsRepeatedKey(t *testing.T) {
	testlog.Start(t)
	for _, doc := range []string{
		`{"z":1,"a":2,"z":3}`,
		`{"outer":{"k":null,"k":null}}`,
	} {
		_, err := Decode([]byte(doc), protocol.DefaultLimits())
		assert.True(t, errors.Is(err, protocol.ErrDuplicateKey), "%s: %v", doc, err)
		assert.True(t, errors.Is(err, protocol.ErrDecode), doc)
	}
}

func TestEncodeRejectsKeysCollidingAsText(t *testing.T) {
	testlog.Start(t)
	cases := map[string]value.Value{
		"int and text": value.Map(
			value.Pair{Key: value.Int(1), Value: value.Text("int-key")},
			value.Pair{Key: value.Text("1"), Value: value.Text("text-key")},
		),
		"null and text": value.Map(
			value.Pair{Key: value.Null(), Value: value.Text("null-key")},
			value.Pair{Key: value.Text("null"), Value: value.Text("text-null")},
		),
		"bool and text": value.Map(
			value.Pair{Key: value.Text("true"), Value: value.Int(1)},
			value.Pair{Key: value.Bool(true), Value: value.Int(2)},
		),
	}
	for name, v := range cases {
		_, err := Encode(v)
		assert.True(t, errors.Is(err, protocol.ErrUnsupportedKey), "%s: %v", name, err)
	}

	nested := value.Seq(value.Map(
		value.Pair{Key: value.Float64(2), Value: value.Null()},
		value.Pair{Key: value.Text("2.0"), Value: value.Null()},
	))
	_, err := Encode(nested)
	assert.True(t, errors.Is(err, protocol.ErrUnsupportedKey))
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	testlog.Start(t)
	_, err := Encode(value.Text("ok\xff"))
	assert.True(t, errors.Is(err, protocol.ErrInvalidText))
	assert.True(t, errors.Is(err, protocol.ErrSchemaViolation))

	_, err = Encode(value.Map(value.Pair{Key: value.Text("\xc3"), Value: value.Null()}))
	assert.True(t, errors.Is(err, protocol.ErrInvalidText))

	got, err := Encode(value.Text("héllo ✓"))
	require.NoError(t, err)
	assert.Equal(t, `"héllo ✓"`, string(got))
}

func TestDecodeMalformedIsDeterministic(t *testing.T) {
	testlog.Start(t)
	cases := map[string]error{
		``:            protocol.ErrTruncated,
		`{"a":`:       protocol.ErrTruncated,
		`[1,2`:        protocol.ErrTruncated,
		`{"a":1} {}`:  protocol.ErrTrailingData,
		`{"a" 1}`:     protocol.ErrDecode,
		`[1,,2]`:      protocol.ErrDecode,
		`{"a":tru}`:   protocol.ErrDecode,
		`{"a":NaN}`:   protocol.ErrDecode,
	}
	for in, want := range cases {
		_, err := Decode([]byte(in), protocol.DefaultLimits())
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, want), "%q: got %v want %v", in, err, want)
		assert.True(t, errors.Is(err, protocol.ErrDecode), in)
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	testlog.Start(t)
	limits := protocol.DefaultLimits()
	limits.MaxDepth = 4

	ok := strings.Repeat("[", 4) + strings.Repeat("]", 4)
	_, err := Decode([]byte(ok), limits)
	require.NoError(t, err)

	deep := strings.Repeat("[", 5) + strings.Repeat("]", 5)
	_, err = Decode([]byte(deep), limits)
	assert.True(t, errors.Is(err, protocol.ErrDepthExceeded))
}

func TestDecodeSizeLimits(t *testing.T) {
	testlog.Start(t)
	limits := protocol.DefaultLimits()
	limits.MaxListSize = 2
	limits.MaxMapSize = 1
	limits.MaxStringLength = 3

	_, err := Decode([]byte(`[1,2,3]`), limits)
	assert.True(t, errors.Is(err, protocol.ErrLengthExceeded))
	_, err = Decode([]byte(`{"a":1,"b":2}`), limits)
	assert.True(t, errors.Is(err, protocol.ErrLengthExceeded))
	_, err = Decode([]byte(`"abcd"`), limits)
	assert.True(t, errors.Is(err, protocol.ErrLengthExceeded))
}

func TestDecodeLenientAcceptsComments(t *testing.T) {
	testlog.Start(t)
	doc := []byte(`{
		// packet discriminator
		"packetType": "/example/PingPacket",
		"message": "hi", /* trailing comma next */
	}`)
	v, err := DecodeLenient(doc, protocol.DefaultLimits())
	require.NoError(t, err)
	msg, ok := v.Field("message")
	require.True(t, ok)
	assert.True(t, value.Equal(msg, value.Text("hi")))

	_, err = Decode(doc, protocol.DefaultLimits())
	assert.Error(t, err)
}
