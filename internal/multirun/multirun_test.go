package multirun

import (
	"context"
	"testing"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/runloop"
)

type fakeWriter struct {
	paths []string
}

func (w *fakeWriter) WriteSnapshot(path string, snap metrics.Snapshot) error {
	w.paths = append(w.paths, path)
	return nil
}

func TestPerRunPathInsertsSuffix(t *testing.T) {
	cases := map[string]string{
		"metrics.json": "metrics_run3.json",
		"report":       "report_run3",
		"":             "",
	}
	for base, want := range cases {
		if got := perRunPath(base, 3); got != want {
			t.Errorf("perRunPath(%q, 3) = %q, want %q", base, got, want)
		}
	}
}

func TestRunExecutesConfiguredRunCountAndWritesPerRunFiles(t *testing.T) {
	m := metrics.New()
	writer := &fakeWriter{}
	c := Controller{
		Metrics:         m,
		RunConfig:       runloop.Config{},
		Runs:            3,
		MetricsJSONPath: "metrics.json",
		Writer:          writer,
	}

	calls := 0
	run := func(ctx context.Context, m *metrics.Metrics, cfg runloop.Config) runloop.Result {
		calls++
		m.Start()
		m.IncProcessed(100)
		m.StopCapture()
		return runloop.Result{FinalState: runloop.StateDone}
	}

	results, agg := Run(context.Background(), c, run)

	if calls != 3 {
		t.Fatalf("expected 3 run invocations, got %d", calls)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if len(writer.paths) != 4 {
		t.Fatalf("expected 3 per-run files plus 1 base file written, got %d", len(writer.paths))
	}
	wantPaths := []string{"metrics_run1.json", "metrics_run2.json", "metrics_run3.json", "metrics.json"}
	for i, p := range wantPaths {
		if writer.paths[i] != p {
			t.Errorf("paths[%d] = %q, want %q", i, writer.paths[i], p)
		}
	}
	if agg.MedianPPS < 0 {
		t.Fatalf("unexpected negative median pps: %v", agg.MedianPPS)
	}
}

func TestRunSingleRunWritesOnlyBaseFileNotPerRunFile(t *testing.T) {
	m := metrics.New()
	writer := &fakeWriter{}
	c := Controller{
		Metrics:         m,
		RunConfig:       runloop.Config{},
		Runs:            1,
		MetricsJSONPath: "baseline.json",
		Writer:          writer,
	}

	run := func(ctx context.Context, m *metrics.Metrics, cfg runloop.Config) runloop.Result {
		m.Start()
		m.IncProcessed(50)
		m.StopCapture()
		return runloop.Result{FinalState: runloop.StateDone}
	}

	Run(context.Background(), c, run)

	if len(writer.paths) != 1 {
		t.Fatalf("expected exactly 1 file written for a single run, got %d (%v)", len(writer.paths), writer.paths)
	}
	if writer.paths[0] != "baseline.json" {
		t.Errorf("expected base path %q written, got %q", "baseline.json", writer.paths[0])
	}
}

func TestRunStopsEarlyOnInterruptedRun(t *testing.T) {
	m := metrics.New()
	c := Controller{Metrics: m, Runs: 5}

	calls := 0
	run := func(ctx context.Context, m *metrics.Metrics, cfg runloop.Config) runloop.Result {
		calls++
		return runloop.Result{FinalState: runloop.StateDone, Interrupted: true}
	}

	results, _ := Run(context.Background(), c, run)
	if calls != 1 {
		t.Fatalf("expected exactly 1 run before stopping on interruption, got %d", calls)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestMedianOfOddAndEvenCounts(t *testing.T) {
	results := []RunResult{{PPS: 10}, {PPS: 30}, {PPS: 20}}
	if got := medianOf(results, func(r RunResult) float64 { return r.PPS }); got != 20 {
		t.Errorf("median of odd count = %v, want 20", got)
	}

	results = append(results, RunResult{PPS: 40})
	if got := medianOf(results, func(r RunResult) float64 { return r.PPS }); got != 25 {
		t.Errorf("median of even count = %v, want 25", got)
	}
}
