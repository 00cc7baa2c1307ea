// Package events provides the publish/subscribe bus shared by a client and
// its mounted extensions.
//
// Handlers are invoked synchronously, in subscription order, on the
// goroutine that calls Trigger. The handler list is snapshotted before
// invocation, so handlers may subscribe or unsubscribe while running without
// affecting the current dispatch.
//
// The core emits three events:
//
//	events.Disconnected  // the backend became unreachable
//	events.Reconnected   // the backend is reachable again
//	events.Dispose       // the client is being torn down
//
// Extensions should talk to each other through the bus rather than holding
// direct references:
//
//	off := bus.On(events.Disconnected, func(args ...any) {
//	    queue.Pause()
//	})
//	defer off()
package events
