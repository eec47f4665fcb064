package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/packet"
	"github.com/danmuck/crosspacket/internal/protocol/registry"
	"github.com/danmuck/crosspacket/internal/protocol/schema"
	"github.com/danmuck/crosspacket/internal/testutil/testlog"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	testlog.Start(t)
	payload := []byte(`{"packetType":"/example/PingPacket"}`)
	in := Frame{Header: Header{Codec: packet.Text}, Payload: payload}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if buf.Len() != HeaderLen+len(payload) {
		t.Fatalf("frame length: got=%d want=%d", buf.Len(), HeaderLen+len(payload))
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Header.Magic != Magic || out.Header.Version != Version || out.Header.Codec != packet.Text {
		t.Fatalf("header mismatch: got=%+v", out.Header)
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
	if _, err := ReadFrame(&buf, DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

func TestHeaderLayout(t *testing.T) {
	testlog.Start(t)
	b := EncodeHeader(Header{Magic: Magic, Version: Version, Codec: packet.Binary, PayloadLen: 0x0102})
	want := []byte{0xC2, 0x05, 0x51, 0xD0, 0x01, 0x02, 0x00, 0x00, 0, 0, 0, 0, 0, 0, 0x01, 0x02}
	if !bytes.Equal(b, want) {
		t.Fatalf("header bytes: got=%x want=%x", b, want)
	}
}

func TestReadFrameMalformedHeaderIsDeterministic(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}

	cases := map[string]struct {
		h    Header
		want error
	}{
		"bad magic":   {Header{Magic: 0xEDCE1001, Version: Version, Codec: packet.Text}, ErrBadMagic},
		"bad version": {Header{Magic: Magic, Version: 9, Codec: packet.Text}, ErrUnsupportedVersion},
		"bad codec":   {Header{Magic: Magic, Version: Version, Codec: 7}, ErrUnknownCodec},
	}
	for name, tc := range cases {
		_, err := ReadFrame(bytes.NewReader(EncodeHeader(tc.h)), DefaultLimits())
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
		}
	}
}

func TestReadFramePayloadLimits(t *testing.T) {
	testlog.Start(t)
	h := Header{Magic: Magic, Version: Version, Codec: packet.Binary, PayloadLen: 1 << 40}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits())
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}

	h.PayloadLen = 10
	short := append(EncodeHeader(h), 0x01, 0x02)
	_, err = ReadFrame(bytes.NewReader(short), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}

	limits := Limits{MaxPayloadBytes: 4}
	err = WriteFrame(io.Discard, Frame{Header: Header{Codec: packet.Text}, Payload: make([]byte, 5)}, limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge on write, got %v", err)
	}
	err = WriteFrame(io.Discard, Frame{Payload: []byte{1}}, DefaultLimits())
	if !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("expected ErrUnknownCodec on write, got %v", err)
	}
}

func TestPacketStreamMixedCodecs(t *testing.T) {
	testlog.Start(t)
	ping := packet.New(schema.Ping)
	if err := ping.SetText("message", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	pong := packet.New(schema.Pong)
	if err := pong.SetInt("latencyMs", 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	var buf bytes.Buffer
	if err := WritePacket(&buf, ping, packet.Text, DefaultLimits()); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if err := WritePacket(&buf, pong, packet.Binary, DefaultLimits()); err != nil {
		t.Fatalf("write pong: %v", err)
	}

	reg := registry.Default()
	got, c, err := ReadPacket(&buf, reg, DefaultLimits(), protocol.DefaultLimits())
	if err != nil || c != packet.Text || !packet.Equal(got, ping) {
		t.Fatalf("first packet: codec=%s err=%v", c, err)
	}
	got, c, err = ReadPacket(&buf, reg, DefaultLimits(), protocol.DefaultLimits())
	if err != nil || c != packet.Binary || !packet.Equal(got, pong) {
		t.Fatalf("second packet: codec=%s err=%v", c, err)
	}
	if _, _, err := ReadPacket(&buf, reg, DefaultLimits(), protocol.DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestWritePacketRejectsInvalidPacket(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	err := WritePacket(&buf, packet.New(schema.Pong), packet.Binary, DefaultLimits())
	if !errors.Is(err, protocol.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %d bytes", buf.Len())
	}
}
