// Package gateway issues requests against a single backend.
//
// The Gateway resolves relative paths against a base URL, merges request
// options over fixed defaults, runs request hooks, and normalizes every
// rejection into an *Error so callers always see a structured failure,
// whether it came from the backend or from the transport.
//
// # Calls
//
// Request returns a *Call immediately. The call is a future: wait on it with
// Wait, select on Done, or abort it with Cancel. Cancel belongs to the Call
// itself rather than to the result of normalization, so it always reaches the
// underlying transport request.
//
//	call := gw.Request(ctx, http.MethodGet, "/docs/1", gateway.Options{})
//	defer call.Cancel()
//
//	resp, err := call.Wait(ctx)
//	var gerr *gateway.Error
//	if errors.As(err, &gerr) && gerr.Unreachable() {
//	    // backend could not be contacted
//	}
//
// # Error Shapes
//
// A rejected response with a JSON body surfaces that body verbatim in
// Error.Body. A non-JSON body surfaces as {"error": <body text>}. No body at
// all surfaces as {"error": "Cannot connect to backend at <base URL>"}.
// Caller cancellation is reported as ErrCanceled and is never normalized.
package gateway
