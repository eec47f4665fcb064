package packets

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/crosspacket/internal/protocol/packet"
	"github.com/danmuck/crosspacket/internal/protocol/schema"
	"github.com/danmuck/crosspacket/internal/protocol/value"
)

// ChunkDataKey is the entry of DataChunk.data that carries the chunk bytes.
const ChunkDataKey = "payload"

var (
	ErrChunkSize     = errors.New("packets: chunk size must be positive")
	ErrChunkSet      = errors.New("packets: incomplete or inconsistent chunk set")
	ErrChunkChecksum = errors.New("packets: chunk checksum mismatch")
)

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Split cuts payload into DataChunk packets of at most size bytes. An empty
// payload yields one empty chunk.
func Split(payload []byte, size int) ([]*packet.Packet, error) {
	if size <= 0 {
		return nil, ErrChunkSize
	}
	total := (len(payload) + size - 1) / size
	if total == 0 {
		total = 1
	}
	out := make([]*packet.Packet, 0, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := min(start+size, len(payload))
		part := payload[start:end]
		p := packet.New(schema.DataChunk)
		must(p.SetInt("chunkIndex", int64(i)))
		must(p.SetInt("totalChunks", int64(total)))
		must(p.Set("data", value.Map(value.Pair{Key: value.Text(ChunkDataKey), Value: value.Bytes(part)})))
		must(p.SetText("checksum", checksum(part)))
		out = append(out, p)
	}
	return out, nil
}

// Reassemble orders chunks by index, verifies checksums and joins the
// payloads. Chunk bytes that crossed the text codec arrive as base64 Text
// and are decoded here.
func Reassemble(chunks []*packet.Packet) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrChunkSet
	}
	type part struct {
		index int64
		data  []byte
	}
	parts := make([]part, 0, len(chunks))
	var total int64 = -1
	for _, c := range chunks {
		if c.TypeID() != schema.TypeDataChunk {
			return nil, fmt.Errorf("%w: type %s", ErrChunkSet, c.TypeID())
		}
		idx, _ := c.Int("chunkIndex")
		n, _ := c.Int("totalChunks")
		if total == -1 {
			total = n
		}
		if n != total {
			return nil, fmt.Errorf("%w: total %d != %d", ErrChunkSet, n, total)
		}
		data, err := chunkBytes(c.Get("data"))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", idx, err)
		}
		if sum, ok := c.Text("checksum"); ok && sum != checksum(data) {
			return nil, fmt.Errorf("%w: chunk %d", ErrChunkChecksum, idx)
		}
		parts = append(parts, part{index: idx, data: data})
	}
	if int64(len(parts)) != total {
		return nil, fmt.Errorf("%w: have %d of %d", ErrChunkSet, len(parts), total)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })
	var out []byte
	for i, p := range parts {
		if p.index != int64(i) {
			return nil, fmt.Errorf("%w: missing chunk %d", ErrChunkSet, i)
		}
		out = append(out, p.data...)
	}
	return out, nil
}

func chunkBytes(data value.Value) ([]byte, error) {
	raw, ok := data.Field(ChunkDataKey)
	if !ok {
		return nil, fmt.Errorf("%w: data has no %q entry", ErrChunkSet, ChunkDataKey)
	}
	switch raw.Kind() {
	case value.KindBytes:
		return raw.Bytes()
	case value.KindText:
		s, _ := raw.Text()
		return base64.StdEncoding.DecodeString(s)
	}
	return nil, fmt.Errorf("%w: payload is %s", ErrChunkSet, raw.Kind())
}
