// Package packets builds the built-in packet types with typed arguments.
package packets

import (
	"time"

	"github.com/google/uuid"

	"github.com/danmuck/crosspacket/internal/protocol/packet"
	"github.com/danmuck/crosspacket/internal/protocol/schema"
)

// must panics on a Set failure. Arguments here are typed to their fields,
// so a failure is a catalog bug.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func NewMessage(senderID, content string, ts time.Time) *packet.Packet {
	p := packet.New(schema.Message)
	must(p.SetText("senderId", senderID))
	must(p.SetText("content", content))
	must(p.SetTime("timestamp", ts))
	return p
}

func NewPing(message string, ts time.Time) *packet.Packet {
	p := packet.New(schema.Ping)
	must(p.SetTime("timestamp", ts))
	must(p.SetText("message", message))
	return p
}

// NewPong answers ping at now. Latency is the whole milliseconds between
// the ping timestamp and now; a ping without a timestamp yields 0.
func NewPong(ping *packet.Packet, now time.Time) *packet.Packet {
	p := packet.New(schema.Pong)
	must(p.SetTime("responseTimestamp", now))
	latency := int64(0)
	if sent, ok := ping.Time("timestamp"); ok {
		must(p.SetTime("originalTimestamp", sent))
		latency = now.Sub(sent).Milliseconds()
	}
	must(p.SetInt("latencyMs", latency))
	return p
}

// NewSecureMessage starts a secure message with a fresh message id. The
// payload is opaque caller-supplied bytes.
func NewSecureMessage(senderID, recipientID int64, payload []byte) *packet.Packet {
	p := packet.New(schema.SecureMessage)
	must(p.SetText("messageId", uuid.NewString()))
	must(p.SetInt("senderId", senderID))
	must(p.SetInt("recipientId", recipientID))
	must(p.SetInt("priority", 0))
	must(p.SetBool("isRead", false))
	if payload != nil {
		must(p.SetBytes("encryptedPayload", payload))
	}
	return p
}

// EnsureMessageID assigns a message id to a secure message that has none.
func EnsureMessageID(p *packet.Packet) error {
	if p.TypeID() != schema.TypeSecureMessage {
		return nil
	}
	if id, ok := p.Text("messageId"); ok && id != "" {
		return nil
	}
	return p.SetText("messageId", uuid.NewString())
}
