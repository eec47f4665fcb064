package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crosspacket",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crosspacket",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	codecOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crosspacket",
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Packet encode and decode operations.",
		},
		[]string{"op", "codec", "type_id", "success"},
	)
	codecDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crosspacket",
			Subsystem: "codec",
			Name:      "duration_seconds",
			Help:      "Packet encode and decode duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"op", "codec"},
	)
	codecBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crosspacket",
			Subsystem: "codec",
			Name:      "payload_bytes",
			Help:      "Encoded packet size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		},
		[]string{"op", "codec"},
	)
)

// Codec operation labels.
const (
	OpEncode = "encode"
	OpDecode = "decode"
)

// UnknownType labels a decode that failed before the type id was known.
const UnknownType = "unknown"

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecOps, codecDuration, codecBytes)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCodec records one encode or decode of size bytes.
func RecordCodec(op, codec, typeID string, size int, duration time.Duration, success bool) {
	RegisterMetrics()
	if typeID == "" {
		typeID = UnknownType
	}
	codecOps.WithLabelValues(op, codec, typeID, strconv.FormatBool(success)).Inc()
	codecDuration.WithLabelValues(op, codec).Observe(duration.Seconds())
	if success {
		codecBytes.WithLabelValues(op, codec).Observe(float64(size))
	}
}
