package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonwraymond/apiclient/events"
	"github.com/jonwraymond/apiclient/gateway"
	"github.com/jonwraymond/apiclient/health"
	"github.com/jonwraymond/apiclient/observe"
)

// Polling intervals.
const (
	HealthyInterval  = 30 * time.Second
	DegradedInterval = 3 * time.Second
)

// Probe defaults.
const (
	DefaultProbePath    = "/"
	DefaultProbeTimeout = 10 * time.Second
)

// Requester issues gateway requests. *gateway.Gateway implements it.
type Requester interface {
	Request(ctx context.Context, method, path string, opts gateway.Options) *gateway.Call
}

var _ Requester = (*gateway.Gateway)(nil)

// Config configures a Monitor.
type Config struct {
	// Requester issues the probe requests. Required.
	Requester Requester

	// Emitter receives transition events.
	// Default: a private events.Bus
	Emitter events.Emitter

	// Clock schedules probes.
	// Default: RealClock()
	Clock Clock

	// Logger logs transitions.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Metrics records transitions.
	// Default: observe.NopMetrics()
	Metrics observe.Metrics

	// Target names the backend in logs and health details, usually the base URL.
	Target string

	// ProbePath is the path probed on every check.
	// Default: DefaultProbePath
	ProbePath string

	// ProbeTimeout bounds a single probe. Expiry counts as a failure.
	// Default: DefaultProbeTimeout
	ProbeTimeout time.Duration
}

// Monitor tracks backend reachability.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Single-flight: at most one probe is pending at any time.
// - Ordering: transition events are emitted after Online reflects the new
//   state and before the next probe is scheduled.
type Monitor struct {
	requester    Requester
	emitter      events.Emitter
	clock        Clock
	logger       observe.Logger
	metrics      observe.Metrics
	target       string
	probePath    string
	probeTimeout time.Duration

	mu        sync.Mutex
	online    bool
	interval  time.Duration
	pending   *Probe
	timer     Timer
	stopped   bool
	lastCheck time.Time
	lastErr   error
}

var _ health.Checker = (*Monitor)(nil)

// New creates a Monitor in the Online state. No probe runs until Start or
// CheckConnection is called.
func New(config Config) (*Monitor, error) {
	if config.Requester == nil {
		return nil, ErrNilRequester
	}
	if config.Emitter == nil {
		config.Emitter = events.New()
	}
	if config.Clock == nil {
		config.Clock = RealClock()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NopMetrics()
	}
	if config.ProbePath == "" {
		config.ProbePath = DefaultProbePath
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = DefaultProbeTimeout
	}

	return &Monitor{
		requester:    config.Requester,
		emitter:      config.Emitter,
		clock:        config.Clock,
		logger:       config.Logger.With(observe.F("component", "monitor"), observe.F("target", config.Target)),
		metrics:      config.Metrics,
		target:       config.Target,
		probePath:    config.ProbePath,
		probeTimeout: config.ProbeTimeout,
		online:       true,
		interval:     HealthyInterval,
	}, nil
}

// Online reports the current connection state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Interval returns the delay used for the next scheduled probe.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Start runs the first connection check, which starts the polling loop.
func (m *Monitor) Start() *Probe {
	m.mu.Lock()
	m.stopped = false
	m.mu.Unlock()
	return m.CheckConnection()
}

// Stop cancels the scheduled probe and any pending one. No further probes
// are scheduled until Start is called again.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	pending := m.pending
	m.mu.Unlock()

	if pending != nil {
		pending.Cancel()
	}
}

// CheckConnection probes the backend now. While a probe is pending it
// returns that probe instead of starting another. A manual check replaces
// the scheduled one, so there is only ever one polling loop.
func (m *Monitor) CheckConnection() *Probe {
	m.mu.Lock()
	if m.pending != nil {
		p := m.pending
		m.mu.Unlock()
		return p
	}
	if m.stopped {
		m.mu.Unlock()
		return finishedProbe(ErrStopped)
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout)
	p := newProbe(cancel)
	m.pending = p
	m.mu.Unlock()

	// The probe tests reachability only; request hooks do not run.
	call := m.requester.Request(ctx, http.MethodGet, m.probePath, gateway.Options{SkipHooks: true})
	go m.await(ctx, p, call)

	return p
}

func (m *Monitor) await(ctx context.Context, p *Probe, call *gateway.Call) {
	_, err := call.Wait(ctx)
	if call.State() == gateway.StatePending && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrProbeTimeout, err)
	}
	canceled := err != nil && errors.Is(ctx.Err(), context.Canceled)
	p.cancel()

	m.complete(ctx, p, err, canceled)
}

// complete is the probe completion handler. It is the only place that
// changes the connection state and the polling interval.
func (m *Monitor) complete(ctx context.Context, p *Probe, err error, canceled bool) {
	var event string

	m.mu.Lock()
	if !canceled {
		m.lastCheck = m.clock.Now()
		m.lastErr = err
		if err == nil {
			m.interval = HealthyInterval
			if !m.online {
				m.online = true
				event = events.Reconnected
			}
		} else {
			m.interval = DegradedInterval
			if m.online {
				m.online = false
				event = events.Disconnected
			}
		}
	}
	m.mu.Unlock()

	if event != "" {
		m.emitter.Trigger(event)
		m.metrics.RecordTransition(context.WithoutCancel(ctx), event == events.Reconnected)
		if event == events.Disconnected {
			m.logger.Warn(ctx, "backend unreachable", observe.F("error", err))
		} else {
			m.logger.Info(ctx, "backend reachable again")
		}
	}

	m.mu.Lock()
	if m.pending == p {
		m.pending = nil
	}
	m.scheduleLocked()
	m.mu.Unlock()

	switch {
	case canceled:
		p.finish(fmt.Errorf("%w: %w", ErrProbeCanceled, err))
	default:
		p.finish(err)
	}
}

// scheduleLocked arms the next probe after the current interval.
// Callers hold m.mu.
func (m *Monitor) scheduleLocked() {
	if m.stopped {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.clock.AfterFunc(m.interval, m.tick)
}

func (m *Monitor) tick() {
	m.CheckConnection()
}

// Name implements health.Checker.
func (m *Monitor) Name() string {
	return "backend"
}

// Check implements health.Checker from the last probe outcome. It does not
// issue a request.
func (m *Monitor) Check(ctx context.Context) health.Result {
	m.mu.Lock()
	online := m.online
	details := map[string]any{
		"target":   m.target,
		"interval": m.interval.String(),
		"pending":  m.pending != nil,
	}
	if !m.lastCheck.IsZero() {
		details["last_check"] = m.lastCheck.UTC().Format(time.RFC3339)
	}
	lastErr := m.lastErr
	m.mu.Unlock()

	if online {
		return health.Healthy("backend reachable").WithDetails(details)
	}
	return health.Unhealthy("backend unreachable", lastErr).WithDetails(details)
}
