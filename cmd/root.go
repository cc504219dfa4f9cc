// Package cmd implements the single-shot CLI harness using cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/capture"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/config"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/log"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics/prommetrics"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/multirun"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/pool"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/queue"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/regression"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/report"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/runloop"
)

const (
	queueDepth       = 4096
	pcapBufferBytes  = 2 * 1024 * 1024
	metricsAddr      = "127.0.0.1:9100"
	exitFatalStartup = 1
)

var configFile string
var flags config.RunConfig

var rootCmd = &cobra.Command{
	Use:   "packet-analyzer",
	Short: "Short-lived packet-capture measurement harness",
	Long: `packet-analyzer captures live traffic for a configured warm-up and
measurement window, folds parsed frames into a metrics core, and optionally
compares the result against a prior baseline to catch throughput and
latency regressions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	d := config.Default()

	rootCmd.Flags().StringVar(&configFile, "config", "", "optional YAML config file")
	rootCmd.Flags().StringVar(&flags.Interface, "interface", d.Interface, "capture interface")
	rootCmd.Flags().IntVarP(&flags.DurationSec, "duration", "d", d.DurationSec, "total duration in seconds (0 = unlimited)")
	rootCmd.Flags().IntVar(&flags.WarmupSec, "warmup-sec", d.WarmupSec, "warm-up window in seconds")
	rootCmd.Flags().IntVar(&flags.MeasureSec, "measure-sec", d.MeasureSec, "measurement window in seconds")
	rootCmd.Flags().IntVar(&flags.Runs, "runs", d.Runs, "number of measurement runs")
	rootCmd.Flags().IntVarP(&flags.MaxPackets, "max-packets", "n", d.MaxPackets, "stop a run early after this many captured packets (0 = unlimited)")
	rootCmd.Flags().IntVarP(&flags.Threads, "threads", "t", d.Threads, "worker pool size")
	rootCmd.Flags().BoolVar(&flags.ICMPFilter, "icmp", d.ICMPFilter, "restrict capture to ICMPv4/ICMPv6 frames")
	rootCmd.Flags().IntVar(&flags.StatsIntervalSec, "stats-interval", d.StatsIntervalSec, "seconds between human-readable stats lines (0 = disabled)")
	rootCmd.Flags().IntVar(&flags.MetricsIntervalMS, "metrics-interval-ms", d.MetricsIntervalMS, "milliseconds between Prometheus gauge syncs (0 = disabled)")
	rootCmd.Flags().StringVar(&flags.MetricsJSON, "metrics-json", d.MetricsJSON, "path to write the final JSON report (per-run files added alongside it when --runs > 1; empty = no file)")
	rootCmd.Flags().Uint64Var(&flags.MinPackets, "min-packets", d.MinPackets, "minimum total processed packets for a trusted regression sample")
	rootCmd.Flags().StringVar(&flags.TrafficMode, "traffic", d.TrafficMode, "traffic generator mode (icmp, empty = none)")
	rootCmd.Flags().IntVar(&flags.TrafficRate, "traffic-rate", d.TrafficRate, "traffic generator rate in packets/sec, clamped to [1,500]")
	rootCmd.Flags().StringVar(&flags.TrafficTarget, "traffic-target", d.TrafficTarget, "traffic generator destination address")
	rootCmd.Flags().StringVar(&flags.BaselinePath, "baseline", d.BaselinePath, "path to a prior run's JSON report to compare against")
	rootCmd.Flags().BoolVar(&flags.FailOnRegression, "fail-on-regression", d.FailOnRegression, "exit non-zero on a persistent regression or hard metadata mismatch")
	rootCmd.Flags().Float64Var(&flags.RegressionThreshold, "regression-threshold", d.RegressionThreshold, "fractional regression threshold in [0,1]")
	rootCmd.Flags().StringVar(&flags.CaptureBackend, "capture-backend", d.CaptureBackend, "capture backend: pcap or afpacket")
	rootCmd.Flags().IntVar(&flags.BPFBufferSizeMB, "bpf-buffer-size", d.BPFBufferSizeMB, "afpacket ring buffer size in megabytes")
	rootCmd.Flags().BoolVar(&flags.Debug, "debug", d.Debug, "enable debug-level logging")

	// Hidden traffic-generator child dispatch flags: main.go intercepts these
	// before cobra ever parses argv, so they never reach this command; they
	// are registered here too, hidden, so cobra accepts them without listing
	// them in --help.
	rootCmd.Flags().Bool("traffic-child", false, "internal: run as the traffic-generator child process")
	rootCmd.Flags().String("traffic-child-mode", "", "internal")
	rootCmd.Flags().String("traffic-child-target", "", "internal")
	rootCmd.Flags().String("traffic-child-rate", "", "internal")
	_ = rootCmd.Flags().MarkHidden("traffic-child")
	_ = rootCmd.Flags().MarkHidden("traffic-child-mode")
	_ = rootCmd.Flags().MarkHidden("traffic-child-target")
	_ = rootCmd.Flags().MarkHidden("traffic-child-rate")
}

// exitCodeError carries a specific process exit code through cobra's
// error-return path without cobra printing a second "Error:" line for
// codes that are not startup failures.
type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

// ExitCodeFor extracts the intended process exit code from an error
// returned by Execute; ordinary errors (startup failures) map to 1.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ec, ok := err.(exitCodeError); ok {
		return ec.code
	}
	return exitFatalStartup
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadEffectiveConfig(cmd)
	if err != nil {
		return err
	}

	logCfg := &log.LoggerConfig{Pattern: "[%time] %level %msg %field", Time: time.RFC3339, Level: "info"}
	if cfg.Debug {
		logCfg.Level = "debug"
	}
	log.Init(logCfg)
	logger := log.GetLogger()

	src, err := capture.Open(cfg.CaptureBackend, cfg.Interface, pcapBufferBytes, cfg.BPFBufferSizeMB)
	if err != nil {
		logger.Errorf("capture source open failed: %v", err)
		return fmt.Errorf("packet-analyzer: open capture source: %w", err)
	}
	defer src.Close()

	filter := capture.FilterNone
	if cfg.ICMPFilter {
		filter = capture.FilterICMP
	}
	if err := src.SetFilter(filter); err != nil {
		logger.Errorf("set filter failed: %v", err)
		return fmt.Errorf("packet-analyzer: set filter: %w", err)
	}

	m := metrics.New()
	q := queue.New(queueDepth, m)
	p := pool.New(q, m, cfg.Threads)
	p.Start()

	bridge := prommetrics.NewBridge()
	metricsSrv := prommetrics.NewServer(bridge, metricsAddr, "")
	srvErrCh := make(chan error, 1)
	metricsSrv.Start(srvErrCh)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsIntervalMS > 0 {
		bridge.StartSyncing(ctx, m, time.Duration(cfg.MetricsIntervalMS)*time.Millisecond)
	}

	ticker := report.NewTicker(m, os.Stdout, time.Duration(cfg.StatsIntervalSec)*time.Second)
	ticker.Start(ctx)

	meta := metadataFor(cfg)

	runloopCfg := runloop.Config{
		WarmupSec:      cfg.WarmupSec,
		MeasureSec:     resolveMeasureSec(cfg),
		MaxPackets:     cfg.MaxPackets,
		TrafficMode:    cfg.TrafficMode,
		TrafficTarget:  cfg.TrafficTarget,
		TrafficRatePPS: cfg.TrafficRate,
	}

	controller := multirun.Controller{
		Metrics:         m,
		RunConfig:       runloopCfg,
		Runs:            cfg.Runs,
		MetricsJSONPath: cfg.MetricsJSON,
		Writer:          report.JSONWriter{Meta: meta},
	}

	results, aggregate := multirun.Run(ctx, controller, func(ctx context.Context, m *metrics.Metrics, rc runloop.Config) runloop.Result {
		return runloop.Run(ctx, src, q, m, rc, logger)
	})

	// The runs are over: cancel ctx so the ticker and gauge sync exit.
	cancel()
	ticker.Wait()
	_ = metricsSrv.Stop(context.Background())
	p.Shutdown()

	for _, r := range results {
		report.PrintOneLiner(os.Stdout, r.Snapshot)
	}
	fmt.Printf("median: pps=%.1f mbps=%.2f p95=%.0fns\n", aggregate.MedianPPS, aggregate.MedianMBPS, aggregate.MedianP95NS)

	if cfg.BaselinePath == "" {
		return nil
	}

	baseline, err := regression.Load(cfg.BaselinePath)
	if err != nil {
		logger.Errorf("baseline load failed, skipping regression comparison: %v", err)
		return nil
	}

	compat := regression.CheckCompatibility(baseline.Metadata, meta)
	fmt.Print(regression.FormatTable(compat))

	runMetrics := make([]regression.RunMetrics, 0, len(results))
	for _, r := range results {
		captured := r.Snapshot.PktsCaptured
		if captured == 0 {
			captured = 1
		}
		dropRate := float64(r.Snapshot.QueueDrops+r.Snapshot.CaptureDrops) / float64(captured)
		runMetrics = append(runMetrics, regression.RunMetrics{
			PPS:           r.PPS,
			MBPS:          r.MBPS,
			P95NS:         r.P95NS,
			DropRate:      dropRate,
			PktsProcessed: r.Snapshot.PktsProcessed,
		})
	}

	verdict := regression.Evaluate(baseline, compat, runMetrics, cfg.RegressionThreshold, cfg.MinPackets)
	code := regression.ExitCode(verdict, cfg.FailOnRegression)
	if code != 0 {
		return exitCodeError{code: code}
	}
	return nil
}

// loadEffectiveConfig layers flag values on top of an optional config file:
// the file (or built-in defaults when no file is given) supplies a value for
// every field, and any flag the user actually passed on the command line
// overrides it, mirroring the teacher's configFile/flag precedence split.
func loadEffectiveConfig(cmd *cobra.Command) (config.RunConfig, error) {
	base, err := config.Load(configFile)
	if err != nil {
		return config.RunConfig{}, fmt.Errorf("packet-analyzer: load config: %w", err)
	}

	cfg := *base
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("interface") {
		cfg.Interface = flags.Interface
	}
	if changed("duration") {
		cfg.DurationSec = flags.DurationSec
	}
	if changed("warmup-sec") {
		cfg.WarmupSec = flags.WarmupSec
	}
	if changed("measure-sec") {
		cfg.MeasureSec = flags.MeasureSec
	}
	if changed("runs") {
		cfg.Runs = flags.Runs
	}
	if changed("max-packets") {
		cfg.MaxPackets = flags.MaxPackets
	}
	if changed("threads") {
		cfg.Threads = flags.Threads
	}
	if changed("icmp") {
		cfg.ICMPFilter = flags.ICMPFilter
	}
	if changed("stats-interval") {
		cfg.StatsIntervalSec = flags.StatsIntervalSec
	}
	if changed("metrics-interval-ms") {
		cfg.MetricsIntervalMS = flags.MetricsIntervalMS
	}
	if changed("metrics-json") {
		cfg.MetricsJSON = flags.MetricsJSON
	}
	if changed("min-packets") {
		cfg.MinPackets = flags.MinPackets
	}
	if changed("traffic") {
		cfg.TrafficMode = flags.TrafficMode
	}
	if changed("traffic-rate") {
		cfg.TrafficRate = flags.TrafficRate
	}
	if changed("traffic-target") {
		cfg.TrafficTarget = flags.TrafficTarget
	}
	if changed("baseline") {
		cfg.BaselinePath = flags.BaselinePath
	}
	if changed("fail-on-regression") {
		cfg.FailOnRegression = flags.FailOnRegression
	}
	if changed("regression-threshold") {
		cfg.RegressionThreshold = flags.RegressionThreshold
	}
	if changed("capture-backend") {
		cfg.CaptureBackend = flags.CaptureBackend
	}
	if changed("bpf-buffer-size") {
		cfg.BPFBufferSizeMB = flags.BPFBufferSizeMB
	}
	if changed("debug") {
		cfg.Debug = flags.Debug
	}

	if err := cfg.Validate(); err != nil {
		return config.RunConfig{}, fmt.Errorf("packet-analyzer: invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveMeasureSec derives the actual measurement window per spec §6:
// --measure-sec wins when set; otherwise fall back to --duration/-d. A
// resolved value of 0 means unlimited (run until signal or --max-packets).
func resolveMeasureSec(cfg config.RunConfig) int {
	if cfg.MeasureSec > 0 {
		return cfg.MeasureSec
	}
	return cfg.DurationSec
}

func metadataFor(cfg config.RunConfig) metrics.Metadata {
	filter := capture.FilterNone
	if cfg.ICMPFilter {
		filter = capture.FilterICMP
	}
	return metrics.Metadata{
		Interface:     cfg.Interface,
		Filter:        filter,
		OS:            runtime.GOOS,
		GitSHA:        os.Getenv("PACKET_ANALYZER_GIT_SHA"),
		TrafficMode:   cfg.TrafficMode,
		TrafficTarget: cfg.TrafficTarget,
		Threads:       cfg.Threads,
		BPFBufferSize: cfg.BPFBufferSizeMB,
		DurationSec:   cfg.DurationSec,
		WarmupSec:     cfg.WarmupSec,
		TrafficRate:   cfg.TrafficRate,
	}
}
