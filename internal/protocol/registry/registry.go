// Package registry maps packet type ids to schemas so that a decoder can
// pick the schema named by a packet's discriminator.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/packet"
	"github.com/danmuck/crosspacket/internal/protocol/schema"
)

var (
	ErrSchemaExists  = errors.New("registry: schema already registered")
	ErrSchemaNil     = errors.New("registry: schema is nil")
	ErrInvalidTypeID = errors.New("registry: invalid type id")
)

// Registry stores schemas by type id. It is safe for concurrent use;
// registration normally happens once at startup.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*schema.Schema
}

func New() *Registry {
	return &Registry{items: make(map[string]*schema.Schema)}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry preloaded with the built-in
// schemas.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
		for _, s := range schema.Builtin() {
			defaultReg.MustRegister(s)
		}
	})
	return defaultReg
}

// ValidateTypeID checks the "/segment/Name" form of a type id.
func ValidateTypeID(id string) error {
	if !strings.HasPrefix(id, "/") || len(id) < 2 {
		return fmt.Errorf("%w: %q must start with /", ErrInvalidTypeID, id)
	}
	for _, seg := range strings.Split(id[1:], "/") {
		if seg == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidTypeID, id)
		}
		if strings.ContainsAny(seg, " \t\r\n") {
			return fmt.Errorf("%w: %q contains whitespace", ErrInvalidTypeID, id)
		}
	}
	return nil
}

func (r *Registry) Register(s *schema.Schema) error {
	if s == nil {
		return ErrSchemaNil
	}
	if err := ValidateTypeID(s.TypeID()); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.TypeID()]; ok {
		return fmt.Errorf("%w: %s", ErrSchemaExists, s.TypeID())
	}
	r.items[s.TypeID()] = s
	log.Debug().Str("type_id", s.TypeID()).Int("fields", s.Len()).Msg("registry: schema registered")
	return nil
}

func (r *Registry) MustRegister(s *schema.Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(typeID string) (*schema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[typeID]
	return s, ok
}

// All returns the registered schemas ordered by type id.
func (r *Registry) All() []*schema.Schema {
	r.mu.RLock()
	list := make([]*schema.Schema, 0, len(r.items))
	for _, s := range r.items {
		list = append(list, s)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		return list[i].TypeID() < list[j].TypeID()
	})
	return list
}

// DecodeAny decodes one packet of any registered type with default limits.
func (r *Registry) DecodeAny(c packet.Codec, data []byte) (*packet.Packet, error) {
	return r.DecodeAnyWithLimits(c, data, protocol.DefaultLimits())
}

// DecodeAnyWithLimits reads the discriminator from the decoded tree and
// applies the matching schema.
func (r *Registry) DecodeAnyWithLimits(c packet.Codec, data []byte, limits protocol.Limits) (*packet.Packet, error) {
	tree, err := packet.Parse(c, data, limits)
	if err != nil {
		return nil, err
	}
	typeID, err := packet.TypeOf(tree)
	if err != nil {
		return nil, err
	}
	s, ok := r.Get(typeID)
	if !ok {
		log.Debug().Str("type_id", typeID).Str("codec", c.String()).Msg("registry: unknown packet type")
		return nil, fmt.Errorf("%w: %q", protocol.ErrUnknownType, typeID)
	}
	return packet.FromTree(tree, s, limits)
}
