package transport

import (
	"context"
	"fmt"
	"net/http"
)

// ResponseType tells the transport what the caller expects back.
type ResponseType string

const (
	// ResponseJSON expects a JSON body. It is the gateway default.
	ResponseJSON ResponseType = "json"
	// ResponseText expects a plain text body.
	ResponseText ResponseType = "text"
	// ResponseBinary expects an opaque body.
	ResponseBinary ResponseType = "binary"
)

// Accept returns the Accept header value for the response type.
func (t ResponseType) Accept() string {
	switch t {
	case ResponseText:
		return "text/plain"
	case ResponseBinary:
		return "application/octet-stream"
	default:
		return "application/json"
	}
}

// Request is a resolved request handed to a Transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// CredentialsIncluded sends stored cookies and records Set-Cookie responses.
	CredentialsIncluded bool

	// CrossOrigin suppresses the X-Requested-With marker header when true.
	CrossOrigin bool

	ResponseType ResponseType
}

// Response is a successful (2xx or 304) transport response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Error is a transport rejection. StatusCode is zero when the backend could
// not be contacted at all, in which case Body is empty and Err holds the cause.
type Error struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("transport: no response: %v", e.Err)
		}
		return "transport: no response"
	}
	return fmt.Sprintf("transport: status %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transport performs a single request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: RoundTrip must abort promptly when ctx is canceled.
// - Errors: rejections should be *Error so the raw body stays reachable.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts an ordinary function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

// RoundTrip calls f.
func (f Func) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Successful reports whether status is treated as a resolved response.
func Successful(status int) bool {
	return (status >= 200 && status < 300) || status == http.StatusNotModified
}
