package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/crosspacket/internal/observability"
	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/packet"
	"github.com/danmuck/crosspacket/internal/protocol/registry"
)

type FieldInfo struct {
	Name     string `json:"name"`
	Wire     string `json:"wire"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional"`
}

type SchemaInfo struct {
	TypeID string      `json:"type_id"`
	Fields []FieldInfo `json:"fields"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.GET("/schemas", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"schemas": s.ListSchemas()})
	})
	v1.POST("/transcode", s.handleTranscode)
	v1.POST("/inspect", s.handleInspect)
}

func (s *Server) ListSchemas() []SchemaInfo {
	return DescribeSchemas(s.registry)
}

// DescribeSchemas lists every schema in reg, ordered by type id.
func DescribeSchemas(reg *registry.Registry) []SchemaInfo {
	all := reg.All()
	list := make([]SchemaInfo, 0, len(all))
	for _, sc := range all {
		info := SchemaInfo{TypeID: sc.TypeID()}
		for _, f := range sc.Fields() {
			info.Fields = append(info.Fields, FieldInfo{
				Name:     f.Name,
				Wire:     f.Wire,
				Kind:     f.TypeName(),
				Optional: f.Optional,
			})
		}
		list = append(list, info)
	}
	return list
}

func codecParam(c *gin.Context, key string) (packet.Codec, error) {
	return packet.ParseCodec(c.DefaultQuery(key, "text"))
}

func (s *Server) decodeBody(c *gin.Context, codec packet.Codec) (*packet.Packet, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	start := time.Now()
	p, err := s.registry.DecodeAnyWithLimits(codec, body, s.limits)
	typeID := ""
	if p != nil {
		typeID = p.TypeID()
	}
	observability.RecordCodec(observability.OpDecode, codec.String(), typeID, len(body), time.Since(start), err == nil)
	if err != nil {
		_ = c.Error(err)
		c.JSON(errorStatus(err), gin.H{"error": err.Error(), "class": errorClass(err)})
		return nil, false
	}
	return p, true
}

func (s *Server) encode(c *gin.Context, p *packet.Packet, codec packet.Codec) ([]byte, bool) {
	start := time.Now()
	out, err := p.Encode(codec)
	observability.RecordCodec(observability.OpEncode, codec.String(), p.TypeID(), len(out), time.Since(start), err == nil)
	if err != nil {
		log.Error().Err(err).Str("type_id", p.TypeID()).Str("codec", codec.String()).Msg("server: encode failed")
		_ = c.Error(err)
		c.JSON(errorStatus(err), gin.H{"error": err.Error(), "class": errorClass(err)})
		return nil, false
	}
	return out, true
}

func (s *Server) handleTranscode(c *gin.Context) {
	from, err := codecParam(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := codecParam(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := s.decodeBody(c, from)
	if !ok {
		return
	}
	out, ok := s.encode(c, p, to)
	if !ok {
		return
	}
	c.Header(observability.PacketTypeHeader, p.TypeID())
	c.Data(http.StatusOK, to.ContentType(), out)
}

func (s *Server) handleInspect(c *gin.Context) {
	codec, err := codecParam(c, "codec")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := s.decodeBody(c, codec)
	if !ok {
		return
	}
	text, ok := s.encode(c, p, packet.Text)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type_id": p.TypeID(),
		"codec":   codec.String(),
		"present": p.Present(),
		"packet":  json.RawMessage(text),
	})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, protocol.ErrCoercion), errors.Is(err, protocol.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, protocol.ErrDecode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, protocol.ErrCoercion):
		return "coercion"
	case errors.Is(err, protocol.ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, protocol.ErrDecode):
		return "decode"
	}
	return "internal"
}
