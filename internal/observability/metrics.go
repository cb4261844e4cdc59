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
			Namespace: "uartlink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "uartlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	linkBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uartlink",
			Subsystem: "link",
			Name:      "bytes_total",
			Help:      "Raw bytes moved over the serial link.",
		},
		[]string{"node", "direction"},
	)
	linkPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uartlink",
			Subsystem: "link",
			Name:      "packets_total",
			Help:      "Validated packets by direction and message type.",
		},
		[]string{"node", "direction", "type"},
	)
	linkDiagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uartlink",
			Subsystem: "link",
			Name:      "diagnostics_total",
			Help:      "Discarded frames by diagnostic kind.",
		},
		[]string{"node", "kind"},
	)
	linkTextLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uartlink",
			Subsystem: "link",
			Name:      "text_lines_total",
			Help:      "Out-of-frame text lines captured from the device.",
		},
		[]string{"node"},
	)
	linkReopens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uartlink",
			Subsystem: "link",
			Name:      "reopens_total",
			Help:      "Transport open attempts by outcome.",
		},
		[]string{"node", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			linkBytes,
			linkPackets,
			linkDiagnostics,
			linkTextLines,
			linkReopens,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordLinkBytes counts n raw bytes; direction is "rx" or "tx".
func RecordLinkBytes(node, direction string, n int) {
	RegisterMetrics()
	linkBytes.WithLabelValues(node, direction).Add(float64(n))
}

func RecordLinkPacket(node, direction, msgType string) {
	RegisterMetrics()
	linkPackets.WithLabelValues(node, direction, msgType).Inc()
}

func RecordLinkDiagnostic(node, kind string) {
	RegisterMetrics()
	linkDiagnostics.WithLabelValues(node, kind).Inc()
}

func RecordLinkText(node string) {
	RegisterMetrics()
	linkTextLines.WithLabelValues(node).Inc()
}

func RecordLinkReopen(node string, success bool) {
	RegisterMetrics()
	linkReopens.WithLabelValues(node, strconv.FormatBool(success)).Inc()
}
