// Package cache keeps recent backend reads so they can be served while the
// backend is unreachable.
//
// It provides a Cache interface with a TTL memory implementation, a Keyer
// that derives stable keys from query parameters, TTL policies, and a
// ReadThrough loader that falls back to cached data on connection failures.
package cache
