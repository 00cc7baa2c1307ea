package monitor

import (
	"context"

	"github.com/jonwraymond/apiclient/gateway"
)

// Probe is a pending connection check. It resolves when the backend
// answered and rejects when it did not.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use.
// - Errors: a rejected probe carries the request error, or ErrProbeCanceled.
type Probe struct {
	cancel context.CancelFunc
	done   chan struct{}

	// err is written once before done is closed.
	err error
}

func newProbe(cancel context.CancelFunc) *Probe {
	return &Probe{cancel: cancel, done: make(chan struct{})}
}

func finishedProbe(err error) *Probe {
	p := newProbe(func() {})
	p.finish(err)
	return p
}

func (p *Probe) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when the probe completes.
func (p *Probe) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the probe completes or ctx is done, and returns the
// probe error. A ctx expiry only stops waiting.
func (p *Probe) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the rejection error, or nil while pending or when resolved.
func (p *Probe) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// State returns the probe state.
func (p *Probe) State() gateway.State {
	select {
	case <-p.done:
		if p.err != nil {
			return gateway.StateRejected
		}
		return gateway.StateResolved
	default:
		return gateway.StatePending
	}
}

// Cancel aborts the probe request. A canceled probe does not affect the
// connection state.
func (p *Probe) Cancel() {
	p.cancel()
}
