package events

import (
	"sync"
)

// Core event names.
const (
	Disconnected = "disconnected"
	Reconnected  = "reconnected"
	Dispose      = "dispose"
)

// Handler receives the arguments passed to Trigger.
type Handler func(args ...any)

// Emitter is the publish side of a bus.
type Emitter interface {
	Trigger(event string, args ...any)
}

// Subscriber is the subscribe side of a bus.
type Subscriber interface {
	On(event string, h Handler) (off func())
	Once(event string, h Handler) (off func())
}

var (
	_ Emitter    = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)

type subscription struct {
	id   uint64
	fn   Handler
	once bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithErrorHandler sets the function that receives a *PanicError when a
// handler panics. Without it, panics are recovered and dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(b *Bus) {
		b.onError = fn
	}
}

// Bus is an in-process event bus.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: handlers for one event run in subscription order.
// - Errors: a panicking handler does not stop the remaining handlers.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]subscription
	onError  func(error)
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{handlers: make(map[string][]subscription)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On subscribes h to event. The returned function removes the subscription
// and is safe to call more than once.
func (b *Bus) On(event string, h Handler) (off func()) {
	return b.subscribe(event, h, false)
}

// Once subscribes h for a single delivery.
func (b *Bus) Once(event string, h Handler) (off func()) {
	return b.subscribe(event, h, true)
}

func (b *Bus) subscribe(event string, h Handler, once bool) func() {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, fn: h, once: once})
	b.mu.Unlock()

	return func() { b.remove(event, id) }
}

func (b *Bus) remove(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[event]
	for i, s := range subs {
		if s.id == id {
			b.set(event, append(subs[:i:i], subs[i+1:]...))
			return
		}
	}
}

// set stores subs for event. Callers hold b.mu.
func (b *Bus) set(event string, subs []subscription) {
	if len(subs) == 0 {
		delete(b.handlers, event)
		return
	}
	b.handlers[event] = subs
}

// Off removes every handler subscribed to event.
func (b *Bus) Off(event string) {
	b.mu.Lock()
	delete(b.handlers, event)
	b.mu.Unlock()
}

// Reset removes every handler for every event.
func (b *Bus) Reset() {
	b.mu.Lock()
	b.handlers = make(map[string][]subscription)
	b.mu.Unlock()
}

// Count returns the number of handlers subscribed to event.
func (b *Bus) Count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[event])
}

// Trigger invokes every handler subscribed to event with args.
func (b *Bus) Trigger(event string, args ...any) {
	b.mu.Lock()
	subs := b.handlers[event]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)

	kept := subs[:0:0]
	for _, s := range subs {
		if !s.once {
			kept = append(kept, s)
		}
	}
	if len(kept) != len(subs) {
		b.set(event, kept)
	}
	b.mu.Unlock()

	for _, s := range snapshot {
		b.invoke(event, s.fn, args)
	}
}

func (b *Bus) invoke(event string, fn Handler, args []any) {
	defer func() {
		if r := recover(); r != nil && b.onError != nil {
			b.onError(&PanicError{Event: event, Value: r})
		}
	}()
	fn(args...)
}
