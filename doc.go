// Package apiclient is the runtime core of a client SDK for a single HTTP
// backend.
//
// A Client composes three parts around one shared instance:
//
//   - a request gateway (package gateway) that resolves paths against the
//     base URL, applies request defaults and normalizes failures;
//   - a connection monitor (package monitor) that polls the backend and
//     announces transitions on the event bus;
//   - an extension set (package extension) holding named modules built from
//     factories that receive the Client itself.
//
// Extensions declared before a client exists go into a Registry, usually
// DefaultRegistry through Register, and are mounted by New in registration
// order before the first connection check:
//
//	func init() {
//		apiclient.Register("account", func(c *apiclient.Client) (any, error) {
//			return account.New(c), nil
//		})
//	}
//
//	client, err := apiclient.New(apiclient.WithBaseURL("https://api.example.com"))
//
// Extensions talk to each other through the event bus rather than direct
// references. The core emits EventDisconnected, EventReconnected and
// EventDispose.
//
// Dispose triggers EventDispose while every extension is still mounted, then
// disposes the extensions in reverse mount order and stops the monitor.
package apiclient
