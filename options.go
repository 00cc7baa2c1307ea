package apiclient

import (
	"time"

	"github.com/jonwraymond/apiclient/cache"
	"github.com/jonwraymond/apiclient/monitor"
	"github.com/jonwraymond/apiclient/observe"
	"github.com/jonwraymond/apiclient/transport"
)

type settings struct {
	baseURL      string
	transport    transport.Transport
	httpConfig   transport.HTTPConfig
	logger       observe.Logger
	observer     observe.Observer
	ownsObserver bool
	registry     *Registry
	clock        monitor.Clock
	probeTimeout time.Duration
	storeCache   cache.Cache
	cachePolicy  cache.Policy
	autoStart    bool
	newRequestID func() string
}

func defaultSettings() settings {
	return settings{
		registry:    DefaultRegistry,
		cachePolicy: cache.DefaultPolicy(),
		autoStart:   true,
	}
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL sets the backend base URL. Trailing slashes are stripped.
// Default: "/_api"
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = baseURL
	}
}

// WithTransport sets the transport requests are issued through.
// Default: a net/http transport built from WithHTTPConfig
func WithTransport(t transport.Transport) Option {
	return func(s *settings) {
		s.transport = t
	}
}

// WithHTTPConfig configures the default net/http transport. Ignored when
// WithTransport is used.
func WithHTTPConfig(config transport.HTTPConfig) Option {
	return func(s *settings) {
		s.httpConfig = config
	}
}

// WithLogger sets the logger. It takes precedence over the observer's logger.
// Default: observe.NopLogger()
func WithLogger(logger observe.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithObserver instruments requests and connection transitions. The caller
// keeps ownership; Dispose does not shut it down.
func WithObserver(obs observe.Observer) Option {
	return func(s *settings) {
		s.observer = obs
		s.ownsObserver = false
	}
}

func withOwnedObserver(obs observe.Observer) Option {
	return func(s *settings) {
		s.observer = obs
		s.ownsObserver = true
	}
}

// WithRegistry mounts registrations from r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithClock sets the clock that schedules connection probes.
func WithClock(clock monitor.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithProbeTimeout bounds every connection probe.
// Default: monitor.DefaultProbeTimeout
func WithProbeTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.probeTimeout = d
	}
}

// WithStoreCache backs reads of stores returned by Open with c, so they can
// be served while the backend is unreachable.
func WithStoreCache(c cache.Cache, policy cache.Policy) Option {
	return func(s *settings) {
		s.storeCache = c
		s.cachePolicy = policy
	}
}

// WithoutAutoStart leaves the polling loop stopped until CheckConnection or
// Start is called.
func WithoutAutoStart() Option {
	return func(s *settings) {
		s.autoStart = false
	}
}

// WithRequestIDs sets the generator for X-Request-Id values.
// Default: uuid.NewString
func WithRequestIDs(fn func() string) Option {
	return func(s *settings) {
		s.newRequestID = fn
	}
}
