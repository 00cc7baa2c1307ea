package monitor

import "errors"

var (
	// ErrProbeCanceled is returned by a probe canceled before it completed.
	ErrProbeCanceled = errors.New("monitor: probe canceled")

	// ErrProbeTimeout is returned by a probe whose request outlived
	// ProbeTimeout without giving up on its own.
	ErrProbeTimeout = errors.New("monitor: probe timed out")

	// ErrStopped is returned by probes requested after Stop.
	ErrStopped = errors.New("monitor: stopped")

	// ErrNilRequester indicates Config.Requester is nil.
	ErrNilRequester = errors.New("monitor: requester is required")
)
