package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PacketTypeHeader carries the type id of the packet a handler produced.
const PacketTypeHeader = "X-Packet-Type"

// unmatchedRoute labels requests that hit no route, keeping raw URLs out of
// metric labels.
const unmatchedRoute = "unmatched"

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedRoute
}

// RequestLogger logs one line per request. Packet routes also log the codec
// query and the packet type.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Debug()
		}

		for _, q := range []string{"codec", "from", "to"} {
			if v := c.Query(q); v != "" {
				event = event.Str(q, v)
			}
		}
		if typeID := c.Writer.Header().Get(PacketTypeHeader); typeID != "" {
			event = event.Str("type_id", typeID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.Last().Error())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", routeOf(c)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Msg("http_request")
	}
}

func RequestMetricsMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(service, c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}
