package remote

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/apiclient/gateway"
)

var (
	// ErrInvalidStoreName indicates an empty store name.
	ErrInvalidStoreName = errors.New("remote: store name is required")

	// ErrInvalidID indicates an empty document id.
	ErrInvalidID = errors.New("remote: document id is required")

	// ErrNilRequester indicates a nil Requester.
	ErrNilRequester = errors.New("remote: requester is required")
)

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var gerr *gateway.Error
	return errors.As(err, &gerr) && gerr.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a backend 409, typically a stale revision.
func IsConflict(err error) bool {
	var gerr *gateway.Error
	return errors.As(err, &gerr) && gerr.StatusCode == http.StatusConflict
}

// IsUnreachable reports whether err means the backend could not be contacted.
func IsUnreachable(err error) bool {
	var gerr *gateway.Error
	return errors.As(err, &gerr) && gerr.Unreachable()
}
