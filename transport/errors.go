package transport

import "errors"

// ErrInvalidOrigin indicates HTTPConfig.Origin is not an absolute URL.
var ErrInvalidOrigin = errors.New("transport: origin must be an absolute URL")
