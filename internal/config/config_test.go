package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultMatchesPlatformInterface(t *testing.T) {
	d := Default()
	want := "eth0"
	if runtime.GOOS == "darwin" {
		want = "en0"
	}
	if d.Interface != want {
		t.Errorf("Default().Interface = %q, want %q", d.Interface, want)
	}
	if d.RegressionThreshold != 0.10 {
		t.Errorf("Default().RegressionThreshold = %v, want 0.10", d.RegressionThreshold)
	}
	if d.MinPackets != 200 {
		t.Errorf("Default().MinPackets = %v, want 200", d.MinPackets)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WarmupSec != 2 || cfg.MeasureSec != 0 || cfg.DurationSec != 20 {
		t.Errorf("unexpected defaults: warmup=%d measure=%d duration=%d", cfg.WarmupSec, cfg.MeasureSec, cfg.DurationSec)
	}
}

func TestLoadFilePartiallyOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	body := "packet-analyzer:\n  interface: wlan0\n  runs: 3\n  icmp_filter: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interface != "wlan0" {
		t.Errorf("Interface = %q, want wlan0", cfg.Interface)
	}
	if cfg.Runs != 3 {
		t.Errorf("Runs = %d, want 3", cfg.Runs)
	}
	if !cfg.ICMPFilter {
		t.Error("expected ICMPFilter true from file")
	}
	if cfg.MeasureSec != 0 {
		t.Errorf("MeasureSec = %d, want unmodified default 0", cfg.MeasureSec)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/does-not-exist.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsZeroRuns(t *testing.T) {
	cfg := Default()
	cfg.Runs = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for runs=0")
	}
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	cfg := Default()
	cfg.RegressionThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold > 1")
	}
}

func TestValidateClampsTrafficRate(t *testing.T) {
	cfg := Default()
	cfg.TrafficRate = 5000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.TrafficRate != 500 {
		t.Errorf("TrafficRate = %d, want clamped to 500", cfg.TrafficRate)
	}

	cfg2 := Default()
	cfg2.TrafficRate = 0
	if err := cfg2.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg2.TrafficRate != 1 {
		t.Errorf("TrafficRate = %d, want clamped to 1", cfg2.TrafficRate)
	}
}
