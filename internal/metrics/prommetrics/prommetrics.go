// Package prommetrics is an additive Prometheus bridge: it periodically
// copies a metrics.Snapshot into promauto-registered gauges so the live
// counters are also visible over /metrics, alongside this system's own
// JSON/one-liner reporting. Grounded on the teacher's internal/metrics
// package (promauto.NewCounterVec/NewGaugeVec usage and naming convention)
// and internal/metrics/server.go (the promhttp.Handler server shape).
//
// Snapshot fields reset to zero between runs (spec §4.5's warmup->measure
// transition re-zeroes the counters), which a Prometheus Counter cannot do
// without looking like a restart to scrapers; everything here is therefore
// a Gauge, set rather than incremented, on every Sync call.
package prommetrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
)

const namespace = "packet_analyzer"

// Bridge owns the registered gauge vectors and copies one snapshot's worth
// of values into them on each Sync call.
type Bridge struct {
	registry  *prometheus.Registry
	packets   *prometheus.GaugeVec
	bytes     *prometheus.GaugeVec
	errors    *prometheus.GaugeVec
	etherType *prometheus.GaugeVec
	protocol  *prometheus.GaugeVec
	queue     prometheus.Gauge
	latency   *prometheus.GaugeVec
	histogram *prometheus.GaugeVec
}

// NewBridge registers the gauge vectors against a private Prometheus
// registry via promauto.With, in the same naming/Help style as the
// teacher's internal/metrics package but scoped to one Bridge instance so
// constructing more than one in tests never double-registers a collector.
func NewBridge() *Bridge {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Bridge{
		registry: reg,
		packets: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "packets",
			Help:      "Packet counts by stage (captured, processed).",
		}, []string{"stage"}),
		bytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes",
			Help:      "Byte counts by stage (captured, processed).",
		}, []string{"stage"}),
		errors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "errors",
			Help:      "Error/drop counts by kind.",
		}, []string{"kind"}),
		etherType: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ethertype_frames",
			Help:      "Frame counts by L3 ethertype class.",
		}, []string{"ethertype"}),
		protocol: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "protocol_frames",
			Help:      "Frame counts by L4 protocol class.",
		}, []string{"protocol"}),
		queue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth_max",
			Help:      "High-water mark of the work queue depth for the current run.",
		}),
		latency: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_ns",
			Help:      "Latency aggregate figures in nanoseconds.",
		}, []string{"stat"}),
		histogram: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_histogram_bucket_count",
			Help:      "Observation count per latency histogram bucket.",
		}, []string{"bucket"}),
	}
}

// Sync copies one snapshot's values into the registered gauges.
func (b *Bridge) Sync(s metrics.Snapshot) {
	b.packets.WithLabelValues("captured").Set(float64(s.PktsCaptured))
	b.packets.WithLabelValues("processed").Set(float64(s.PktsProcessed))

	b.bytes.WithLabelValues("captured").Set(float64(s.BytesCaptured))
	b.bytes.WithLabelValues("processed").Set(float64(s.BytesProcessed))

	b.errors.WithLabelValues("parse_errors").Set(float64(s.ParseErrors))
	b.errors.WithLabelValues("checksum_failures").Set(float64(s.ChecksumFailures))
	b.errors.WithLabelValues("queue_drops").Set(float64(s.QueueDrops))
	b.errors.WithLabelValues("capture_drops").Set(float64(s.CaptureDrops))

	b.etherType.WithLabelValues("ipv4").Set(float64(s.EtherIPv4))
	b.etherType.WithLabelValues("ipv6").Set(float64(s.EtherIPv6))
	b.etherType.WithLabelValues("arp").Set(float64(s.EtherARP))
	b.etherType.WithLabelValues("other").Set(float64(s.EtherOther))

	b.protocol.WithLabelValues("tcp").Set(float64(s.ProtoTCP))
	b.protocol.WithLabelValues("udp").Set(float64(s.ProtoUDP))
	b.protocol.WithLabelValues("icmp").Set(float64(s.ProtoICMP))
	b.protocol.WithLabelValues("other").Set(float64(s.ProtoOther))

	b.queue.Set(float64(s.QueueDepthMax))

	b.latency.WithLabelValues("avg").Set(s.LatencyAvgNS())
	b.latency.WithLabelValues("max").Set(float64(s.LatencyMaxNS))
	b.latency.WithLabelValues("p50").Set(s.Percentile(0.50))
	b.latency.WithLabelValues("p95").Set(s.Percentile(0.95))
	b.latency.WithLabelValues("p99").Set(s.Percentile(0.99))

	for i, count := range s.Histogram {
		b.histogram.WithLabelValues(fmt.Sprint(i)).Set(float64(count))
	}
}

// StartSyncing runs Sync on a fixed interval until ctx is done, in a
// background goroutine, mirroring report.Ticker's shape.
func (b *Bridge) StartSyncing(ctx context.Context, m *metrics.Metrics, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Sync(m.Snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Server exposes one Bridge's registry over HTTP, matching the teacher's
// metrics.Server (promhttp.Handler mounted on a dedicated mux/addr).
type Server struct {
	addr     string
	path     string
	registry *prometheus.Registry
	server   *http.Server
}

// NewServer constructs a metrics HTTP server serving b's registry; path
// defaults to "/metrics".
func NewServer(b *Bridge, addr, path string) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{addr: addr, path: path, registry: b.registry}
}

// Start begins serving in a background goroutine. Listen errors other than
// a clean Shutdown are returned to errCh, which may be nil to discard them.
func (s *Server) Start(errCh chan<- error) {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed && errCh != nil {
			errCh <- fmt.Errorf("packet-analyzer: metrics server: %w", err)
		}
	}()
}

// Stop gracefully shuts the server down within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
