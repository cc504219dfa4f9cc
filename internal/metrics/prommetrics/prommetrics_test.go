package prommetrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
)

func TestSyncExposesSnapshotValues(t *testing.T) {
	b := NewBridge()

	m := metrics.New()
	m.Start()
	m.IncCaptured(1500)
	m.IncProcessed(1400)
	m.ObserveLatency(250_000)
	b.Sync(m.Snapshot())

	srv := httptest.NewServer(promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 1<<16)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])

	for _, want := range []string{
		`packet_analyzer_packets{stage="captured"} 1`,
		`packet_analyzer_packets{stage="processed"} 1`,
		`packet_analyzer_bytes{stage="captured"} 1500`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q\nfull body:\n%s", want, body)
		}
	}
}

func TestTwoBridgesDoNotCollide(t *testing.T) {
	b1 := NewBridge()
	b2 := NewBridge()
	b1.Sync(metrics.New().Snapshot())
	b2.Sync(metrics.New().Snapshot())
}

func TestStartSyncingDisabledWithNonPositiveInterval(t *testing.T) {
	b := NewBridge()
	m := metrics.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.StartSyncing(ctx, m, 0) // must not start a goroutine that outlives the test
}

func TestServerStartStop(t *testing.T) {
	b := NewBridge()
	srv := NewServer(b, "127.0.0.1:0", "")

	errCh := make(chan error, 1)
	srv.Start(errCh)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
