package apiclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/apiclient/cache"
	"github.com/jonwraymond/apiclient/events"
	"github.com/jonwraymond/apiclient/extension"
	"github.com/jonwraymond/apiclient/gateway"
	"github.com/jonwraymond/apiclient/health"
	"github.com/jonwraymond/apiclient/monitor"
	"github.com/jonwraymond/apiclient/observe"
	"github.com/jonwraymond/apiclient/remote"
	"github.com/jonwraymond/apiclient/transport"
)

// Events emitted by the core.
const (
	EventDisconnected = events.Disconnected
	EventReconnected  = events.Reconnected
	EventDispose      = events.Dispose
)

// Client is one configured connection to a backend.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ownership: the Client owns its mounted extensions and disposes them.
// - Lifecycle: after Dispose, Request rejects with ErrDisposed.
type Client struct {
	gateway  *gateway.Gateway
	monitor  *monitor.Monitor
	bus      *events.Bus
	modules  *extension.Set
	logger   observe.Logger
	observer observe.Observer
	ownsObs  bool
	idle     interface{ CloseIdleConnections() }

	storeCache  cache.Cache
	cachePolicy cache.Policy

	disposeOnce sync.Once
	disposeErr  error

	mu       sync.RWMutex
	disposed bool
}

// New creates a Client, mounts every registration of its registry in order
// and starts the connection monitor.
//
// If a registered factory fails, the extensions mounted before it are
// disposed and New returns the *extension.MountError.
func New(opts ...Option) (*Client, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	c, err := build(s)
	if err != nil {
		if s.ownsObserver && s.observer != nil {
			_ = s.observer.Shutdown(context.Background())
		}
		return nil, err
	}

	if s.registry != nil {
		if err := s.registry.MountAll(c, c.modules); err != nil {
			c.logger.Error(context.Background(), "extension mount failed", observe.F("error", err))
			_ = c.teardown(context.Background())
			return nil, err
		}
	}

	if s.autoStart {
		c.monitor.Start()
	}
	return c, nil
}

func build(s settings) (*Client, error) {
	logger := s.logger
	if logger == nil {
		if s.observer != nil {
			logger = s.observer.Logger()
		} else {
			logger = observe.NopLogger()
		}
	}

	tr := s.transport
	if tr == nil {
		h, err := transport.NewHTTP(s.httpConfig)
		if err != nil {
			return nil, err
		}
		tr = h
	}
	idle, _ := tr.(interface{ CloseIdleConnections() })

	metrics := observe.NopMetrics()
	if s.observer != nil {
		m, err := observe.NewMetrics(s.observer.Meter())
		if err != nil {
			return nil, fmt.Errorf("apiclient: create metrics: %w", err)
		}
		metrics = m
		tr = observe.NewMiddleware(observe.NewTracer(s.observer.Tracer()), metrics, logger).Wrap(tr)
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL:      s.baseURL,
		Transport:    tr,
		NewRequestID: s.newRequestID,
	})
	if err != nil {
		return nil, err
	}

	bus := events.New(events.WithErrorHandler(func(err error) {
		logger.Error(context.Background(), "event handler panicked", observe.F("error", err))
	}))

	mon, err := monitor.New(monitor.Config{
		Requester:    gw,
		Emitter:      bus,
		Clock:        s.clock,
		Logger:       logger,
		Metrics:      metrics,
		Target:       gw.BaseURL(),
		ProbeTimeout: s.probeTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		gateway:     gw,
		monitor:     mon,
		bus:         bus,
		modules:     extension.NewSet(),
		logger:      logger,
		observer:    s.observer,
		ownsObs:     s.ownsObserver,
		idle:        idle,
		storeCache:  s.storeCache,
		cachePolicy: s.cachePolicy,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.gateway.BaseURL()
}

// Online reports whether the last connection probe succeeded.
func (c *Client) Online() bool {
	return c.monitor.Online()
}

// Logger returns the client logger for use by extensions.
func (c *Client) Logger() observe.Logger {
	return c.logger
}

// Monitor returns the connection monitor. It implements health.Checker.
func (c *Client) Monitor() *monitor.Monitor {
	return c.monitor
}

// Health reports backend reachability from the last probe.
func (c *Client) Health(ctx context.Context) health.Result {
	return c.monitor.Check(ctx)
}

// UUID returns a new random id, for documents created on the client.
func (c *Client) UUID() string {
	return uuid.NewString()
}

// Request issues a request through the gateway.
func (c *Client) Request(ctx context.Context, method, path string, opts gateway.Options) *gateway.Call {
	if c.isDisposed() {
		return gateway.Rejected(ErrDisposed)
	}
	return c.gateway.Request(ctx, method, path, opts)
}

// Use adds a hook that runs on every request before dispatch, except
// connection checks. The returned function removes it.
func (c *Client) Use(hook gateway.Hook) (remove func()) {
	return c.gateway.Use(hook)
}

// CheckConnection probes the backend, or returns the pending probe.
func (c *Client) CheckConnection() *monitor.Probe {
	return c.monitor.CheckConnection()
}

// Open returns a handle on the backend store name. Unset options inherit
// the client's connection state, logger and store cache.
func (c *Client) Open(name string, opts remote.Options) (*remote.Store, error) {
	if c.isDisposed() {
		return nil, ErrDisposed
	}
	if opts.Online == nil {
		opts.Online = c.Online
	}
	if opts.Logger == nil {
		opts.Logger = c.logger
	}
	if opts.Cache == nil && c.storeCache != nil {
		opts.Cache = c.storeCache
		policy := c.cachePolicy
		opts.Policy = &policy
	}
	return remote.New(c.gateway, name, opts)
}

// Extend builds an extension right away and mounts it under name. A module
// already mounted under name is replaced and disposed.
func (c *Client) Extend(name string, factory Factory) (any, error) {
	if c.isDisposed() {
		return nil, ErrDisposed
	}

	module, err := extension.Mount(c, name, factory)
	if err != nil {
		return nil, err
	}

	if prev, replaced := c.modules.Put(name, module); replaced {
		if err := extension.Dispose(context.Background(), prev); err != nil {
			c.logger.Warn(context.Background(), "replaced extension dispose failed",
				observe.F("extension", name), observe.F("error", err))
		}
	}
	return module, nil
}

// Extension returns the module mounted under name.
func (c *Client) Extension(name string) (any, bool) {
	return c.modules.Get(name)
}

// Extensions returns mounted extension names in mount order.
func (c *Client) Extensions() []string {
	return c.modules.Names()
}

// ExtensionAs returns the module mounted under name as a T.
func ExtensionAs[T any](c *Client, name string) (T, bool) {
	var zero T
	m, ok := c.modules.Get(name)
	if !ok {
		return zero, false
	}
	t, ok := m.(T)
	return t, ok
}

// On subscribes h to event. The returned function unsubscribes.
func (c *Client) On(event string, h events.Handler) (off func()) {
	return c.bus.On(event, h)
}

// Once subscribes h to the next occurrence of event.
func (c *Client) Once(event string, h events.Handler) (off func()) {
	return c.bus.Once(event, h)
}

// Off removes every handler for event.
func (c *Client) Off(event string) {
	c.bus.Off(event)
}

// Trigger invokes the handlers for event synchronously.
func (c *Client) Trigger(event string, args ...any) {
	c.bus.Trigger(event, args...)
}

// Dispose tears the client down. EventDispose handlers run first, while
// every extension is still mounted. Calling Dispose again returns the
// first result.
func (c *Client) Dispose(ctx context.Context) error {
	c.disposeOnce.Do(func() {
		c.bus.Trigger(EventDispose)

		c.mu.Lock()
		c.disposed = true
		c.mu.Unlock()

		c.disposeErr = c.teardown(ctx)
		c.logger.Debug(ctx, "client disposed")
	})
	return c.disposeErr
}

func (c *Client) teardown(ctx context.Context) error {
	var errs []error
	if err := c.modules.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	c.monitor.Stop()
	c.bus.Reset()
	if c.idle != nil {
		c.idle.CloseIdleConnections()
	}
	if c.ownsObs && c.observer != nil {
		if err := c.observer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("apiclient: observer shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) isDisposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}
