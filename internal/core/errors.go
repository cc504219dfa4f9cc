package core

import "errors"

// Sentinel errors, named by effect rather than by source, per ADR-021 style.
var (
	// ErrQueueFull is returned by the work queue when enqueue would exceed
	// its configured depth. The caller destroys the record; the queue has
	// already incremented queue_drops.
	ErrQueueFull = errors.New("packet-analyzer: work queue full")

	// ErrQueueShutdown is returned by a blocking dequeue once the queue has
	// been shut down and drained.
	ErrQueueShutdown = errors.New("packet-analyzer: work queue shut down")

	// ErrPacketTooShort means the frame is too short for the layer being
	// decoded.
	ErrPacketTooShort = errors.New("packet-analyzer: packet too short")

	// ErrBaselineInvalid means a loaded baseline has neither a positive pps
	// nor a positive processed-packet count.
	ErrBaselineInvalid = errors.New("packet-analyzer: baseline invalid")

	// ErrMetadataMismatch means a must-match metadata field differs between
	// baseline and current run.
	ErrMetadataMismatch = errors.New("packet-analyzer: baseline metadata mismatch")

	// ErrInsufficientSample means too few packets were processed across all
	// runs to trust a regression verdict.
	ErrInsufficientSample = errors.New("packet-analyzer: insufficient sample")

	// ErrCaptureSourceClosed means a read was attempted after Close.
	ErrCaptureSourceClosed = errors.New("packet-analyzer: capture source closed")
)
