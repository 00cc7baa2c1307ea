// Package transport is the HTTP collaborator underneath the request gateway.
//
// A Transport takes a fully resolved Request and either returns a Response or
// rejects with an *Error that keeps the raw response body accessible. Non-2xx
// responses are rejections, matching how the gateway expects a browser-style
// request primitive to behave.
//
// The default implementation, HTTP, is built on net/http. It can optionally
// negotiate HTTP/2 over TLS and keeps a cookie jar that is consulted only for
// requests that include credentials.
package transport
