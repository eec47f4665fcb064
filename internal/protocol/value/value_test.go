package value

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opaque struct {
	A int
	B string
}

type named struct{ id string }

func (n named) String() string { return "named:" + n.id }

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, KindNull, v.Kind())
	assert.True(t, Equal(v, Null()))
}

func TestAccessorsRejectOtherKinds(t *testing.T) {
	_, err := Text("x").Int()
	require.True(t, errors.Is(err, ErrKindMismatch))
	_, err = Int(1).Bool()
	require.True(t, errors.Is(err, ErrKindMismatch))
	_, err = Null().Bytes()
	require.True(t, errors.Is(err, ErrKindMismatch))

	f, err := Float32(1.5).Float()
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
}

func TestBytesNilIsEmptyNotNull(t *testing.T) {
	v := Bytes(nil)
	require.Equal(t, KindBytes, v.Kind())
	b, err := v.Bytes()
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Len(t, b, 0)
}

func TestBytesCopiesInput(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Bytes(src)
	src[0] = 9
	b, _ := v.Bytes()
	assert.Equal(t, []byte{1, 2, 3}, b)
}

func TestEqualStructural(t *testing.T) {
	a := Map(
		Pair{Key: Text("a"), Value: Seq(Int(1), Float64(2.5), Null())},
		Pair{Key: Int(7), Value: Bytes([]byte{0x00, 0xff})},
	)
	b := Map(
		Pair{Key: Int(7), Value: Bytes([]byte{0x00, 0xff})},
		Pair{Key: Text("a"), Value: Seq(Int(1), Float64(2.5), Null())},
	)
	assert.True(t, Equal(a, b), "pair order must not matter")

	c := Map(
		Pair{Key: Text("a"), Value: Seq(Int(1), Float64(2.5), Null())},
		Pair{Key: Int(8), Value: Bytes([]byte{0x00, 0xff})},
	)
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(Int(1), Float64(1)), "variants differ")
	assert.False(t, Equal(Float32(1), Float64(1)), "float widths differ")
	assert.False(t, Equal(Seq(Int(1), Int(2)), Seq(Int(2), Int(1))), "sequence order matters")
}

func TestIdentityMatchesEqual(t *testing.T) {
	a := Map(
		Pair{Key: Text("a"), Value: Seq(Int(1), Float64(2.5))},
		Pair{Key: Int(7), Value: Bytes([]byte{0x00})},
	)
	b := Map(
		Pair{Key: Int(7), Value: Bytes([]byte{0x00})},
		Pair{Key: Text("a"), Value: Seq(Int(1), Float64(2.5))},
	)
	assert.Equal(t, Identity(a), Identity(b), "pair order must not matter")
	assert.Equal(t, Identity(Float64(0)), Identity(Float64(math.Copysign(0, -1))))

	distinct := []Value{
		Null(), Text("null"), Int(1), Text("1"), Float64(1), Float32(1),
		Bool(true), Text("true"), Bytes([]byte("1")),
		Seq(Text("ab")), Seq(Text("a"), Text("b")), Map(),
	}
	seen := make(map[string]int)
	for i, v := range distinct {
		id := Identity(v)
		if j, dup := seen[id]; dup {
			t.Fatalf("identity collision between %d and %d: %q", j, i, id)
		}
		seen[id] = i
	}
}

func TestEqualNaNFollowsHostFloatEquality(t *testing.T) {
	nan := Float64(math.NaN())
	assert.False(t, Equal(nan, nan))
}

func TestApproxEqual(t *testing.T) {
	assert.True(t, ApproxEqual(Float64(0.1+0.2), Float64(0.3), 1e-9))
	assert.True(t, ApproxEqual(Seq(Float32(1.0000001)), Seq(Float32(1)), 1e-6))
	assert.False(t, ApproxEqual(Float64(1), Float64(1.1), 1e-9))
}

func TestLookupArbitraryKeys(t *testing.T) {
	m := Map(
		Pair{Key: Int(1), Value: Text("one")},
		Pair{Key: Bool(true), Value: Text("yes")},
		Pair{Key: Text("k"), Value: Text("text")},
	)
	got, ok := m.Lookup(Int(1))
	require.True(t, ok)
	assert.True(t, Equal(got, Text("one")))

	got, ok = m.Lookup(Bool(true))
	require.True(t, ok)
	assert.True(t, Equal(got, Text("yes")))

	got, ok = m.Field("k")
	require.True(t, ok)
	assert.True(t, Equal(got, Text("text")))

	_, ok = m.Lookup(Int(2))
	assert.False(t, ok)
}

func TestFromNatives(t *testing.T) {
	v := From(map[string]any{
		"int":    42,
		"uint8":  uint8(7),
		"float":  1.25,
		"f32":    float32(0.5),
		"str":    "hi",
		"bytes":  []byte{1},
		"list":   []any{1, "two", true, nil},
		"ints":   []int64{1, 2},
		"nested": map[int]string{1: "a"},
	})
	require.Equal(t, KindMapping, v.Kind())

	get := func(k string) Value {
		t.Helper()
		e, ok := v.Field(k)
		require.True(t, ok, k)
		return e
	}
	assert.True(t, Equal(get("int"), Int(42)))
	assert.True(t, Equal(get("uint8"), Int(7)))
	assert.True(t, Equal(get("float"), Float64(1.25)))
	assert.True(t, Equal(get("f32"), Float32(0.5)))
	assert.True(t, Equal(get("str"), Text("hi")))
	assert.True(t, Equal(get("bytes"), Bytes([]byte{1})))
	assert.True(t, Equal(get("list"), Seq(Int(1), Text("two"), Bool(true), Null())))
	assert.True(t, Equal(get("ints"), Seq(Int(1), Int(2))))
	assert.True(t, Equal(get("nested"), Map(Pair{Key: Int(1), Value: Text("a")})))
}

func TestFromPointers(t *testing.T) {
	n := 5
	assert.True(t, Equal(From(&n), Int(5)))
	var np *int
	assert.True(t, From(np).IsNull())
}

func TestFromUnknownTypeStringifies(t *testing.T) {
	v := From(opaque{A: 1, B: "x"})
	s, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "{1 x}", s)

	v = From(named{id: "7"})
	s, err = v.Text()
	require.NoError(t, err)
	assert.Equal(t, "named:7", s)
}

func TestFromTimeUsesTextForm(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	s, err := From(ts).Text()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T12:30:00Z", s)
}

func TestFromHugeUintStringifies(t *testing.T) {
	v := From(uint64(math.MaxUint64))
	s, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", s)
}

func TestNativeRoundTrip(t *testing.T) {
	in := map[string]any{
		"a": int64(1),
		"b": []any{"x", 2.5},
		"c": nil,
	}
	out := Native(From(in))
	assert.Equal(t, in, out)

	mixed := Native(Map(Pair{Key: Int(1), Value: Text("a")}))
	assert.Equal(t, [][2]any{{int64(1), "a"}}, mixed)
}

func TestParseKind(t *testing.T) {
	for k := KindNull; k <= KindMapping; k++ {
		got, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("decimal")
	assert.False(t, ok)
}
