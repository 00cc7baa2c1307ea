package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/apiclient/transport"
)

// State is the lifecycle state of a Call.
type State int

const (
	// StatePending means the call has not completed.
	StatePending State = iota
	// StateResolved means the call completed with a response.
	StateResolved
	// StateRejected means the call completed with an error.
	StateRejected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Response is a resolved call result.
type Response struct {
	StatusCode   int
	Header       http.Header
	Body         []byte
	ResponseType transport.ResponseType
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("gateway: empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Call is an in-flight request.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use.
// - Cancel may be called any number of times, before or after completion.
type Call struct {
	cancel context.CancelFunc
	done   chan struct{}

	// resp and err are written once before done is closed.
	resp *Response
	err  error
}

func newCall(cancel context.CancelFunc) *Call {
	return &Call{
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Rejected returns an already rejected call.
func Rejected(err error) *Call {
	c := newCall(func() {})
	c.finish(nil, err)
	return c
}

// Resolved returns an already resolved call.
func Resolved(resp *Response) *Call {
	c := newCall(func() {})
	c.finish(resp, nil)
	return c
}

func (c *Call) finish(resp *Response, err error) {
	c.resp = resp
	c.err = err
	close(c.done)
}

// Done is closed when the call completes.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call completes or ctx is done.
// A ctx expiry only stops waiting; it does not cancel the call.
func (c *Call) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-c.done:
		return c.resp, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err returns the rejection error, or nil while pending or when resolved.
func (c *Call) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// State returns the current call state.
func (c *Call) State() State {
	select {
	case <-c.done:
		if c.err != nil {
			return StateRejected
		}
		return StateResolved
	default:
		return StatePending
	}
}

// Cancel aborts the underlying transport request.
func (c *Call) Cancel() {
	c.cancel()
}
