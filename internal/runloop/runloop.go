// Package runloop implements the capture thread's state machine: the single
// INIT→WARMUP→MEASURE→DRAIN→DONE sequence that drives one measurement run,
// coupled to the traffic generator's lifecycle and a cancellable context for
// signal-driven shutdown.
package runloop

import (
	"context"
	"time"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/capture"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/traffic"
)

// State is one node of the run loop's state machine.
type State int

const (
	StateInit State = iota
	StateWarmup
	StateMeasure
	StateDrain
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateWarmup:
		return "WARMUP"
	case StateMeasure:
		return "MEASURE"
	case StateDrain:
		return "DRAIN"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// idlePoll is the sleep applied when the capture source reports no packet
// available, to avoid a busy spin.
const idlePoll = time.Millisecond

// drainWait lets in-flight workers finish after capture stops.
const drainWait = 500 * time.Millisecond

// Config holds the per-run parameters the state machine needs; everything
// else (interface selection, thread count, JSON paths) lives above this
// package.
type Config struct {
	WarmupSec      int
	MeasureSec     int // resolved measure window; callers derive this from --measure-sec or -d. 0 = unlimited (no time-based transition out of MEASURE)
	MaxPackets     int // 0 = unlimited
	TrafficMode    string
	TrafficTarget  string
	TrafficRatePPS int
}

// Enqueuer is the slice of queue.WorkQueue the run loop needs.
type Enqueuer interface {
	Enqueue(rec *core.PacketRecord) error
}

// Logger is the narrow logging interface used here and by internal/traffic.
type Logger = traffic.Logger

// Result reports how a single run loop invocation ended.
type Result struct {
	FinalState  State
	Interrupted bool // true if ctx was cancelled before MEASURE completed naturally
}

// Run executes one full INIT→WARMUP→MEASURE→DRAIN→DONE cycle. It resets and
// (re)starts m's lifecycle itself; the caller is responsible for the queue
// and worker pool's lifetime across multiple runs. ctx cancellation (signal
// or multirun abort) forces an early transition to DRAIN from any state.
func Run(ctx context.Context, src capture.Source, q Enqueuer, m *metrics.Metrics, cfg Config, log Logger) Result {
	m.Reset()

	gen, err := traffic.Start(cfg.TrafficMode, cfg.TrafficTarget, cfg.TrafficRatePPS, log)
	if err != nil && log != nil {
		log.Warnf("traffic generator not started: %v", err)
	}

	loopStart := core.MonotonicNS()
	warmupEndNS := loopStart + int64(cfg.WarmupSec)*int64(time.Second)
	// measureEndNS == 0 means unlimited: MEASURE only ends via ctx
	// cancellation or MaxPackets, matching the original's
	// measure_end_ns == 0 "no deadline" convention.
	var measureEndNS int64
	if cfg.MeasureSec > 0 {
		measureEndNS = warmupEndNS + int64(cfg.MeasureSec)*int64(time.Second)
	}

	state := StateInit
	captured := 0
	interrupted := false
	var dropsAtMeasureStart uint64

	if cfg.WarmupSec <= 0 {
		m.Start()
		dropsAtMeasureStart, _ = src.Drops()
		state = StateMeasure
	} else {
		state = StateWarmup
	}

	for state != StateDrain && state != StateDone {
		now := core.MonotonicNS()

		select {
		case <-ctx.Done():
			interrupted = true
			state = StateDrain
		default:
		}
		if state == StateDrain {
			break
		}

		switch state {
		case StateWarmup:
			if now >= warmupEndNS {
				m.Reset()
				m.Start()
				dropsAtMeasureStart, _ = src.Drops()
				state = StateMeasure
			}
		case StateMeasure:
			if (measureEndNS > 0 && now >= measureEndNS) || (cfg.MaxPackets > 0 && captured >= cfg.MaxPackets) {
				state = StateDrain
			}
		}
		if state == StateDrain {
			break
		}

		data, capturedAt, monoNS, err := src.Read()
		if err != nil {
			if log != nil {
				log.Errorf("capture read: %v", err)
			}
			continue
		}
		if len(data) == 0 {
			time.Sleep(idlePoll)
			continue
		}

		if state == StateMeasure {
			m.IncCaptured(len(data))
			captured++
		}

		rec := core.NewPacketRecord(data, capturedAt, monoNS)
		_ = q.Enqueue(rec) // on ErrQueueFull the queue has already counted the drop
	}

	if m.IsActive() {
		if drops, err := src.Drops(); err == nil && drops > dropsAtMeasureStart {
			m.IncCaptureDrops(drops - dropsAtMeasureStart)
		}
	}

	gen.Stop()
	m.StopCapture()
	time.Sleep(drainWait)

	return Result{FinalState: StateDone, Interrupted: interrupted}
}
