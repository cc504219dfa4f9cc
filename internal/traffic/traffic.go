// Package traffic implements the traffic-generator subprocess contract:
// an independent process that emits frames matching the configured filter
// so warm-up and measurement windows see identical load. spec.md treats the
// generator as an external collaborator behind a lifecycle contract only;
// this package supplies the one concrete mode the original generator
// supports (ICMP echo requests at a fixed rate) by re-exec'ing the current
// binary into a hidden child mode, rather than shelling out to the system
// ping binary the original process forked.
package traffic

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ModeICMP is the only traffic mode this generator implements.
const ModeICMP = "icmp"

// DefaultTarget is used when no target is given, matching the original.
const DefaultTarget = "8.8.8.8"

// Rate is clamped to this range per spec §6.
const (
	MinRatePPS = 1
	MaxRatePPS = 500
)

// ChildFlag is the hidden flag cmd/ registers and main.go checks for before
// running the normal CLI logic; its presence means this process invocation is a
// traffic-generator child, not the analyzer itself.
const ChildFlag = "traffic-child"

// Logger is the narrow slice of logging this package needs.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Generator is a running traffic-generator child process.
type Generator struct {
	cmd *exec.Cmd
	log Logger
}

// Start spawns the traffic-generator child for the given mode, target, and
// rate. An empty target falls back to DefaultTarget; rate is clamped to
// [MinRatePPS, MaxRatePPS]. An empty mode is a no-op, returning (nil, nil);
// an unrecognized mode logs a warning and returns (nil, error). Either way
// the run loop proceeds with no generated load.
func Start(mode, target string, ratePPS int, log Logger) (*Generator, error) {
	if mode == "" {
		return nil, nil
	}
	if mode != ModeICMP {
		if log != nil {
			log.Warnf("unknown traffic mode %q, no traffic generated", mode)
		}
		return nil, fmt.Errorf("packet-analyzer: unknown traffic mode %q", mode)
	}
	if target == "" {
		target = DefaultTarget
	}
	if ratePPS < MinRatePPS {
		ratePPS = MinRatePPS
	}
	if ratePPS > MaxRatePPS {
		ratePPS = MaxRatePPS
	}

	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("packet-analyzer: locate self executable: %w", err)
	}

	cmd := exec.Command(execPath,
		"--"+ChildFlag,
		"--"+ChildFlag+"-mode="+mode,
		"--"+ChildFlag+"-target="+target,
		"--"+ChildFlag+"-rate="+fmt.Sprint(ratePPS),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("packet-analyzer: start traffic generator: %w", err)
	}

	if log != nil {
		log.Infof("started traffic generator (pid=%d, mode=%s, target=%s, rate=%d pps)",
			cmd.Process.Pid, mode, target, ratePPS)
	}

	return &Generator{cmd: cmd, log: log}, nil
}

// Stop runs the graceful-shutdown sequence from spec §4.5: SIGINT, then
// SIGTERM if still alive after 200ms, then SIGKILL if still alive after a
// further 100ms, always followed by a blocking reap so no zombie is left
// behind. Safe to call on a nil Generator (no-op) or more than once.
func (g *Generator) Stop() {
	if g == nil || g.cmd == nil || g.cmd.Process == nil {
		return
	}

	pid := g.cmd.Process.Pid
	if g.log != nil {
		g.log.Infof("stopping traffic generator (pid=%d)...", pid)
	}

	done := make(chan struct{})
	go func() {
		g.cmd.Wait()
		close(done)
	}()

	_ = g.cmd.Process.Signal(syscall.SIGINT)
	if waitReaped(done, 200*time.Millisecond) {
		g.logStopped(pid)
		return
	}

	_ = g.cmd.Process.Signal(syscall.SIGTERM)
	if waitReaped(done, 100*time.Millisecond) {
		g.logStopped(pid)
		return
	}

	_ = g.cmd.Process.Signal(syscall.SIGKILL)
	<-done
	g.logStopped(pid)
}

func (g *Generator) logStopped(pid int) {
	if g.log != nil {
		g.log.Infof("traffic generator stopped (pid=%d)", pid)
	}
}

func waitReaped(done <-chan struct{}, d time.Duration) bool {
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
