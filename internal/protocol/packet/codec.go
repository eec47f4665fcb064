package packet

import (
	"fmt"
	"strings"
)

// Codec selects a wire encoding. The numeric values are carried in frame
// headers and must not change.
type Codec uint8

const (
	Text   Codec = 1
	Binary Codec = 2
)

func (c Codec) String() string {
	switch c {
	case Text:
		return "text"
	case Binary:
		return "binary"
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

func (c Codec) Valid() bool { return c == Text || c == Binary }

func (c Codec) ContentType() string {
	if c == Binary {
		return "application/msgpack"
	}
	return "application/json"
}

// ParseCodec accepts "text"/"json" and "binary"/"msgpack".
func ParseCodec(raw string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "text", "json":
		return Text, nil
	case "binary", "msgpack", "bin":
		return Binary, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, raw)
}
