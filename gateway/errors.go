package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for gateway operations.
var (
	// ErrCanceled is returned when a call was canceled by its caller.
	ErrCanceled = errors.New("gateway: request canceled")

	// ErrNilTransport indicates Config.Transport is nil.
	ErrNilTransport = errors.New("gateway: transport is required")

	// ErrInvalidMethod indicates an empty request method.
	ErrInvalidMethod = errors.New("gateway: method is required")
)

// Error is a normalized request rejection.
type Error struct {
	// StatusCode is the response status, or zero if no response was received.
	StatusCode int

	// Body is the parsed JSON body of the rejection, or a synthesized
	// {"error": ...} object when the body was absent or not JSON.
	Body any

	// Raw is the unparsed response body.
	Raw []byte

	// Err is the underlying transport error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.StatusCode == 0 {
		return "gateway: " + msg
	}
	return fmt.Sprintf("gateway: status %d: %s", e.StatusCode, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the backend could not be contacted at all.
func (e *Error) Unreachable() bool {
	return e.StatusCode == 0
}

// Fields returns Body as an object, or nil when the body is not a JSON object.
func (e *Error) Fields() map[string]any {
	m, _ := e.Body.(map[string]any)
	return m
}

// Message returns a human readable summary of the error body.
// CouchDB style bodies ({"error": ..., "reason": ...}) are joined.
func (e *Error) Message() string {
	fields := e.Fields()
	if fields == nil {
		if e.Body == nil {
			return "request failed"
		}
		data, err := json.Marshal(e.Body)
		if err != nil {
			return "request failed"
		}
		return string(data)
	}
	msg, _ := fields["error"].(string)
	if reason, ok := fields["reason"].(string); ok && reason != "" {
		if msg == "" {
			return reason
		}
		return msg + ": " + reason
	}
	if msg == "" {
		return "request failed"
	}
	return msg
}

// unreachableMessage is the synthesized error for requests that never got a body.
func unreachableMessage(baseURL string) string {
	return "Cannot connect to backend at " + baseURL
}

// normalizeBody turns a raw rejection body into the structured error value.
func normalizeBody(raw []byte, baseURL string) any {
	if len(raw) == 0 {
		return map[string]any{"error": unreachableMessage(baseURL)}
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return map[string]any{"error": string(raw)}
	}
	return parsed
}
