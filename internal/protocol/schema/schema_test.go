package schema

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/value"
	"github.com/danmuck/crosspacket/internal/testutil/testlog"
)

func TestBuiltinWireTables(t *testing.T) {
	testlog.Start(t)
	want := map[string][]string{
		TypeMessage:       {"sender_id", "content", "timestamp"},
		TypePing:          {"timestamp", "message"},
		TypePong:          {"original_timestamp", "response_timestamp", "latency_ms"},
		TypeDataChunk:     {"chunk_index", "total_chunks", "data", "checksum"},
		TypeUserProfile:   {"user_id", "username", "email", "bio", "age", "balance", "tags", "preferences", "avatar", "created_at", "last_login"},
		TypeSecureMessage: {"message_id", "sender_id", "recipient_id", "subject", "body", "attachments", "encrypted_payload", "priority", "is_read", "sent_at"},
		TypeComprehensive: {"int_field", "float_field", "double_field", "string_field", "bool_field", "datetime_field", "time_field", "list_field", "list_int_field", "list_string_field", "map_field", "embedded_map_field", "map_string_dynamic_field", "bytes_field"},
	}
	builtin := Builtin()
	if len(builtin) != len(want) {
		t.Fatalf("builtin count: got=%d want=%d", len(builtin), len(want))
	}
	for _, s := range builtin {
		wires, ok := want[s.TypeID()]
		if !ok {
			t.Fatalf("unexpected type id %q", s.TypeID())
		}
		fields := s.Fields()
		if len(fields) != len(wires) {
			t.Fatalf("%s: field count got=%d want=%d", s.TypeID(), len(fields), len(wires))
		}
		for i, f := range fields {
			if f.Wire != wires[i] {
				t.Fatalf("%s: field %d wire got=%s want=%s", s.TypeID(), i, f.Wire, wires[i])
			}
		}
	}
}

func TestFieldLookupByNameAndWire(t *testing.T) {
	testlog.Start(t)
	f, ok := Message.FieldByName("senderId")
	if !ok || f.Wire != "sender_id" {
		t.Fatalf("senderId lookup: %+v ok=%v", f, ok)
	}
	f, ok = Message.FieldByWire("sender_id")
	if !ok || f.Name != "senderId" {
		t.Fatalf("sender_id lookup: %+v ok=%v", f, ok)
	}
	if _, ok := Message.FieldByWire("senderId"); ok {
		t.Fatalf("in-memory name must not resolve as wire name")
	}
	f, _ = Pong.FieldByName("latencyMs")
	if f.Optional {
		t.Fatalf("latencyMs must be required")
	}
	f, _ = Comprehensive.FieldByName("timeField")
	if f.Kind != value.KindText || f.Format != FormatTimeOfDayText {
		t.Fatalf("timeField type: %s", f.TypeName())
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	testlog.Start(t)
	cases := map[string][]FieldSpec{
		"duplicate name": {Field("a", "a", value.KindInt64), Field("a", "b", value.KindInt64)},
		"duplicate wire": {Field("a", "x", value.KindInt64), Field("b", "x", value.KindInt64)},
		"discriminator":  {Field("t", Discriminator, value.KindText)},
		"no kind":        {{Name: "a", Wire: "a"}},
		"no wire":        {{Name: "a", Kind: value.KindBool}},
	}
	for name, fields := range cases {
		if _, err := New("/t/Bad", fields...); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := New(""); err == nil {
		t.Fatalf("empty type id: expected error")
	}
}

func TestTypeName(t *testing.T) {
	testlog.Start(t)
	cases := map[string]FieldSpec{
		"int64":           Field("a", "a", value.KindInt64),
		"text(datetime)":  Field("a", "a", value.KindText).DateTime(),
		"text(time)":      Field("a", "a", value.KindText).TimeOfDay(),
		"sequence":        Field("a", "a", value.KindSequence),
		"sequence<int64>": Field("a", "a", value.KindSequence).Of(value.KindInt64),
		"mapping<text>":   Field("a", "a", value.KindMapping).KeyedByText(),
	}
	for want, f := range cases {
		if got := f.TypeName(); got != want {
			t.Fatalf("type name: got=%s want=%s", got, want)
		}
	}
}

func TestFormatMarkersAndFormatter(t *testing.T) {
	testlog.Start(t)
	f := Field("at", "at", value.KindText).DateTime()
	if f.Format != FormatDateTimeText || f.Format.String() != "datetime" {
		t.Fatalf("datetime marker: %d %q", f.Format, f.Format.String())
	}
	if FormatTimeOfDayText.String() != "time" || FormatNone.String() != "" {
		t.Fatalf("format names: %q %q", FormatTimeOfDayText.String(), FormatNone.String())
	}
	text := FormatDateTime(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	if _, err := Message.Coerce(mustField(t, Message, "timestamp"), value.Text(text), protocol.DefaultLimits()); err != nil {
		t.Fatalf("formatted datetime must coerce: %v", err)
	}
}

func TestAcceptsSourceKinds(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		field string
		kind  value.Kind
		want  bool
	}{
		{"intField", value.KindInt64, true},
		{"intField", value.KindFloat64, true},
		{"intField", value.KindText, true},
		{"intField", value.KindBool, false},
		{"intField", value.KindSequence, false},
		{"floatField", value.KindInt64, true},
		{"boolField", value.KindInt64, false},
		{"stringField", value.KindInt64, false},
		{"bytesField", value.KindText, true},
		{"bytesField", value.KindInt64, false},
		{"listField", value.KindMapping, false},
		{"mapField", value.KindMapping, true},
		{"stringField", value.KindNull, true},
	}
	for _, tc := range cases {
		f := mustField(t, Comprehensive, tc.field)
		if got := f.Accepts(tc.kind); got != tc.want {
			t.Fatalf("%s accepts %s: got=%v want=%v", tc.field, tc.kind, got, tc.want)
		}
	}
}

func mustField(t *testing.T, s *Schema, name string) FieldSpec {
	t.Helper()
	f, ok := s.FieldByName(name)
	if !ok {
		t.Fatalf("%s has no field %s", s.TypeID(), name)
	}
	return f
}

func TestCoerceAccepted(t *testing.T) {
	testlog.Start(t)
	limits := protocol.DefaultLimits()
	cases := []struct {
		field string
		in    value.Value
		want  value.Value
	}{
		{"intField", value.Int(7), value.Int(7)},
		{"intField", value.Float64(7), value.Int(7)},
		{"intField", value.Text(" -12 "), value.Int(-12)},
		{"floatField", value.Int(2), value.Float32(2)},
		{"floatField", value.Float64(0.5), value.Float32(0.5)},
		{"doubleField", value.Int(3), value.Float64(3)},
		{"doubleField", value.Float32(0.25), value.Float64(0.25)},
		{"doubleField", value.Text("1.5"), value.Float64(1.5)},
		{"bytesField", value.Text("AP8="), value.Bytes([]byte{0x00, 0xff})},
		{"bytesField", value.Bytes(nil), value.Bytes(nil)},
		{"datetimeField", value.Text("2024-01-01T00:00:00+00:00"), value.Text("2024-01-01T00:00:00+00:00")},
		{"timeField", value.Text("14:30:00.5"), value.Text("14:30:00.5")},
		{"listIntField", value.Seq(value.Int(1), value.Float64(2)), value.Seq(value.Int(1), value.Int(2))},
		{"stringField", value.Null(), value.Null()},
		{"embeddedMapField", value.Map(value.Pair{Key: value.Int(1), Value: value.Null()}), value.Map(value.Pair{Key: value.Int(1), Value: value.Null()})},
	}
	for _, tc := range cases {
		got, err := Comprehensive.Coerce(mustField(t, Comprehensive, tc.field), tc.in, limits)
		if err != nil {
			t.Fatalf("%s <- %s: %v", tc.field, tc.in, err)
		}
		if !value.Equal(got, tc.want) {
			t.Fatalf("%s <- %s: got=%s want=%s", tc.field, tc.in, got, tc.want)
		}
	}
}

func TestCoerceRejected(t *testing.T) {
	testlog.Start(t)
	limits := protocol.DefaultLimits()
	cases := []struct {
		field string
		in    value.Value
	}{
		{"intField", value.Null()},
		{"intField", value.Float64(1.5)},
		{"intField", value.Float64(math.Inf(1))},
		{"intField", value.Float64(1e19)},
		{"intField", value.Text("twelve")},
		{"intField", value.Bool(true)},
		{"floatField", value.Float64(1e39)},
		{"doubleField", value.Text("abc")},
		{"boolField", value.Int(1)},
		{"stringField", value.Int(1)},
		{"bytesField", value.Text("not base64!")},
		{"datetimeField", value.Text("yesterday")},
		{"timeField", value.Text("25:00:00")},
		{"listIntField", value.Seq(value.Text("x"))},
		{"listIntField", value.Seq(value.Null())},
		{"listStringField", value.Text("x")},
		{"mapField", value.Map(value.Pair{Key: value.Int(1), Value: value.Null()})},
	}
	for _, tc := range cases {
		_, err := Comprehensive.Coerce(mustField(t, Comprehensive, tc.field), tc.in, limits)
		if !errors.Is(err, protocol.ErrCoercion) {
			t.Fatalf("%s <- %s: expected coercion error, got %v", tc.field, tc.in, err)
		}
		var fe *protocol.FieldError
		if !errors.As(err, &fe) || fe.TypeID != TypeComprehensive {
			t.Fatalf("%s: expected FieldError for %s, got %v", tc.field, TypeComprehensive, err)
		}
	}
}

func TestCoerceHonoursFloatLimits(t *testing.T) {
	testlog.Start(t)
	f := mustField(t, Comprehensive, "doubleField")
	limits := protocol.DefaultLimits()
	if _, err := Comprehensive.Coerce(f, value.Text("NaN"), limits); err != nil {
		t.Fatalf("NaN allowed by default: %v", err)
	}
	limits.AllowNaN = false
	limits.AllowInfinity = false
	if _, err := Comprehensive.Coerce(f, value.Float64(math.NaN()), limits); !errors.Is(err, protocol.ErrCoercion) {
		t.Fatalf("expected NaN rejection, got %v", err)
	}
	if _, err := Comprehensive.Coerce(f, value.Text("-Infinity"), limits); !errors.Is(err, protocol.ErrCoercion) {
		t.Fatalf("expected infinity rejection, got %v", err)
	}
}

func TestDateTimeFormats(t *testing.T) {
	testlog.Start(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatDateTime(ts); got != "2024-01-01T00:00:00+00:00" {
		t.Fatalf("format utc: %s", got)
	}
	withFrac := time.Date(2024, 1, 1, 12, 30, 5, 123456000, time.FixedZone("", -5*3600))
	if got := FormatDateTime(withFrac); got != "2024-01-01T12:30:05.123456-05:00" {
		t.Fatalf("format offset: %s", got)
	}
	for _, in := range []string{
		"2024-01-01T00:00:00+00:00",
		"2024-01-01T00:00:00Z",
		"2024-01-01T00:00Z",
		"2024-01-01T00:00:00Z[UTC]",
		"2024-01-01T00:00:00",
	} {
		got, err := ParseDateTime(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if !got.Equal(ts) {
			t.Fatalf("parse %q: got=%s", in, got)
		}
	}
	if _, err := ParseDateTime("01/01/2024"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTimeOfDay(t *testing.T) {
	testlog.Start(t)
	cases := map[string]TimeOfDay{
		"14:30:00":        {Hour: 14, Minute: 30},
		"14:30:00.123456": {Hour: 14, Minute: 30, Nanosecond: 123456000},
		"00:00:59.5":      {Second: 59, Nanosecond: 500000000},
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got=%+v want=%+v", in, got, want)
		}
		if got.String() != in {
			t.Fatalf("render: got=%s want=%s", got.String(), in)
		}
	}
	if got, err := ParseTimeOfDay("09:05"); err != nil || got.String() != "09:05:00" {
		t.Fatalf("short form: %v %v", got, err)
	}
	if _, err := ParseTimeOfDay("2024-01-01T00:00:00"); err == nil {
		t.Fatalf("expected error for datetime text")
	}
}
