// Package frame is the stream envelope for encoded packets: a fixed header
// naming the codec and payload length, followed by the payload.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/packet"
	"github.com/danmuck/crosspacket/internal/protocol/registry"
)

const (
	HeaderLen      = 16
	Magic   uint32 = 0xC20551D0
	Version uint8  = 1
)

var (
	ErrShortHeader        = errors.New("frame: short fixed header")
	ErrShortPayload       = errors.New("frame: payload shorter than header length")
	ErrBadMagic           = errors.New("frame: bad magic")
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	ErrUnknownCodec       = errors.New("frame: unknown codec")
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
)

// Header is the fixed wire header. All fields are big-endian.
type Header struct {
	Magic      uint32
	Version    uint8
	Codec      packet.Codec
	Flags      uint16
	PayloadLen uint64
}

// Frame is one complete envelope.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

// ReadFrame reads one envelope. io.EOF is returned unchanged when r ends
// cleanly between frames.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Frame{}, ErrShortPayload
			}
			return Frame{}, err
		}
	}
	return Frame{Header: h, Payload: payload}, nil
}

// WriteFrame fills Magic, Version and PayloadLen and writes f.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	payloadLen := uint64(len(f.Payload))
	if payloadLen > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	if !f.Header.Codec.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(f.Header.Codec))
	}

	h := f.Header
	h.Magic = Magic
	h.Version = Version
	h.PayloadLen = payloadLen

	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	if payloadLen > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = uint8(h.Codec)
	binary.BigEndian.PutUint16(buf[6:8], h.Flags)
	binary.BigEndian.PutUint64(buf[8:16], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	h := Header{
		Magic:      binary.BigEndian.Uint32(b[0:4]),
		Version:    b[4],
		Codec:      packet.Codec(b[5]),
		Flags:      binary.BigEndian.Uint16(b[6:8]),
		PayloadLen: binary.BigEndian.Uint64(b[8:16]),
	}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.Magic)
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if !h.Codec.Valid() {
		return Header{}, fmt.Errorf("%w: %d", ErrUnknownCodec, b[5])
	}
	return h, nil
}

// WritePacket encodes p with codec c and writes it as one frame.
func WritePacket(w io.Writer, p *packet.Packet, c packet.Codec, limits Limits) error {
	payload, err := p.Encode(c)
	if err != nil {
		return err
	}
	return WriteFrame(w, Frame{Header: Header{Codec: c}, Payload: payload}, limits)
}

// ReadPacket reads one frame and decodes its payload with the schema named
// by the packet discriminator.
func ReadPacket(r io.Reader, reg *registry.Registry, limits Limits, decode protocol.Limits) (*packet.Packet, packet.Codec, error) {
	f, err := ReadFrame(r, limits)
	if err != nil {
		return nil, 0, err
	}
	p, err := reg.DecodeAnyWithLimits(f.Header.Codec, f.Payload, decode)
	if err != nil {
		return nil, f.Header.Codec, err
	}
	return p, f.Header.Codec, nil
}
