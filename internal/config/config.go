// Package config handles run configuration loading using viper.
package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// defaultInterface mirrors the original tool's platform-dependent default:
// eth0 on Linux, en0 on mac-class platforms.
func defaultInterface() string {
	if runtime.GOOS == "darwin" {
		return "en0"
	}
	return "eth0"
}

// RunConfig is the full set of knobs for one invocation, matching the CLI
// surface one-to-one. A YAML file may supply any subset of these under a
// `packet-analyzer:` root key; CLI flags always override file values.
type RunConfig struct {
	Interface   string `mapstructure:"interface"`
	DurationSec int    `mapstructure:"duration_sec"` // 0 = unlimited; used when MeasureSec is unset

	WarmupSec  int `mapstructure:"warmup_sec"`
	MeasureSec int `mapstructure:"measure_sec"` // 0 = derive from DurationSec
	Runs       int `mapstructure:"runs"`

	MaxPackets int `mapstructure:"max_packets"`
	Threads    int `mapstructure:"threads"`
	ICMPFilter bool `mapstructure:"icmp_filter"`

	CaptureBackend  string `mapstructure:"capture_backend"`
	BPFBufferSizeMB int    `mapstructure:"bpf_buffer_size_mb"`

	StatsIntervalSec   int `mapstructure:"stats_interval_sec"`
	MetricsIntervalMS  int `mapstructure:"metrics_interval_ms"`
	MetricsJSON        string `mapstructure:"metrics_json"`
	MinPackets         uint64 `mapstructure:"min_packets"`

	TrafficMode   string `mapstructure:"traffic_mode"`
	TrafficRate   int    `mapstructure:"traffic_rate"`
	TrafficTarget string `mapstructure:"traffic_target"`

	BaselinePath         string  `mapstructure:"baseline_path"`
	FailOnRegression     bool    `mapstructure:"fail_on_regression"`
	RegressionThreshold  float64 `mapstructure:"regression_threshold"`

	Debug bool `mapstructure:"debug"`
}

// Default returns the CLI's documented defaults, applied before any config
// file or flag override.
func Default() RunConfig {
	return RunConfig{
		Interface:           defaultInterface(),
		DurationSec:         20,
		WarmupSec:           2,
		MeasureSec:          0,
		Runs:                1,
		MaxPackets:          0,
		Threads:             1,
		ICMPFilter:          false,
		CaptureBackend:      "pcap",
		BPFBufferSizeMB:     2,
		StatsIntervalSec:    5,
		MetricsIntervalMS:   1000,
		MetricsJSON:         "",
		MinPackets:          200,
		TrafficMode:         "",
		TrafficRate:         50,
		TrafficTarget:       "8.8.8.8",
		BaselinePath:        "",
		FailOnRegression:    false,
		RegressionThreshold: 0.10,
		Debug:               false,
	}
}

type configRoot struct {
	PacketAnalyzer RunConfig `mapstructure:"packet-analyzer"`
}

// Load reads an optional YAML config file at path, layered on top of
// Default(), and returns the merged RunConfig. An empty path returns the
// defaults unchanged. Environment variables also override (viper's
// AutomaticEnv with the packet_analyzer prefix); no key replacer is set,
// so a variable's name is the prefix plus the full dotted key, upper-cased
// as is, e.g. PACKET_ANALYZER_PACKET-ANALYZER.INTERFACE.
func Load(path string) (*RunConfig, error) {
	v := viper.New()

	d := Default()
	setDefaults(v, d)

	v.SetEnvPrefix("packet_analyzer")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("packet-analyzer: read config file: %w", err)
		}
	}

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("packet-analyzer: unmarshal config: %w", err)
	}
	cfg := root.PacketAnalyzer

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("packet-analyzer: invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults seeds viper with d's fields under the packet-analyzer. prefix
// so an incomplete config file still unmarshals into a fully populated
// RunConfig.
func setDefaults(v *viper.Viper, d RunConfig) {
	v.SetDefault("packet-analyzer.interface", d.Interface)
	v.SetDefault("packet-analyzer.duration_sec", d.DurationSec)
	v.SetDefault("packet-analyzer.warmup_sec", d.WarmupSec)
	v.SetDefault("packet-analyzer.measure_sec", d.MeasureSec)
	v.SetDefault("packet-analyzer.runs", d.Runs)
	v.SetDefault("packet-analyzer.max_packets", d.MaxPackets)
	v.SetDefault("packet-analyzer.threads", d.Threads)
	v.SetDefault("packet-analyzer.icmp_filter", d.ICMPFilter)
	v.SetDefault("packet-analyzer.capture_backend", d.CaptureBackend)
	v.SetDefault("packet-analyzer.bpf_buffer_size_mb", d.BPFBufferSizeMB)
	v.SetDefault("packet-analyzer.stats_interval_sec", d.StatsIntervalSec)
	v.SetDefault("packet-analyzer.metrics_interval_ms", d.MetricsIntervalMS)
	v.SetDefault("packet-analyzer.metrics_json", d.MetricsJSON)
	v.SetDefault("packet-analyzer.min_packets", d.MinPackets)
	v.SetDefault("packet-analyzer.traffic_mode", d.TrafficMode)
	v.SetDefault("packet-analyzer.traffic_rate", d.TrafficRate)
	v.SetDefault("packet-analyzer.traffic_target", d.TrafficTarget)
	v.SetDefault("packet-analyzer.baseline_path", d.BaselinePath)
	v.SetDefault("packet-analyzer.fail_on_regression", d.FailOnRegression)
	v.SetDefault("packet-analyzer.regression_threshold", d.RegressionThreshold)
	v.SetDefault("packet-analyzer.debug", d.Debug)
}

// Validate checks the invariants the CLI cannot express as simple flag
// types (the rate clamp from §6, threshold range, non-negative durations).
func (c *RunConfig) Validate() error {
	if c.WarmupSec < 0 {
		return fmt.Errorf("warmup_sec must be >= 0, got %d", c.WarmupSec)
	}
	if c.MeasureSec < 0 {
		return fmt.Errorf("measure_sec must be >= 0, got %d", c.MeasureSec)
	}
	if c.Runs <= 0 {
		return fmt.Errorf("runs must be >= 1, got %d", c.Runs)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	}
	if c.RegressionThreshold < 0 || c.RegressionThreshold > 1 {
		return fmt.Errorf("regression_threshold must be in [0,1], got %v", c.RegressionThreshold)
	}
	if c.TrafficRate < 1 {
		c.TrafficRate = 1
	}
	if c.TrafficRate > 500 {
		c.TrafficRate = 500
	}
	return nil
}
