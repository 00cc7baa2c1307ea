// Package monitor tracks whether the backend is reachable.
//
// A Monitor is a two-state machine, Online and Offline, starting Online.
// Every probe is a single GET of the backend root routed through the request
// gateway:
//
//   - a failure while Online sets Offline, emits events.Disconnected once and
//     switches to the degraded polling interval (3s);
//   - a success while Offline sets Online, emits events.Reconnected once and
//     restores the healthy interval (30s);
//   - an outcome matching the current state changes nothing and emits nothing.
//
// After every completion the next probe is scheduled after the current
// interval, which yields an indefinite polling loop. Events are emitted after
// the flag is updated and before the next probe is scheduled, so listeners
// always observe the new state.
//
// CheckConnection is single-flight: while a probe is pending, every call
// returns that same *Probe. A probe canceled by its caller is neither a
// success nor a failure; it changes no state, and the loop is re-armed so
// polling never stalls. Every probe also runs under a timeout, and a timeout
// counts as a failure.
//
// Event handlers run on the monitor's goroutine. They must not block waiting
// on the probe that triggered them.
package monitor
