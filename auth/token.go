package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/apiclient/gateway"
	"github.com/jonwraymond/apiclient/transport"
)

// DefaultRefreshSkew renews tokens this long before they expire.
const DefaultRefreshSkew = 30 * time.Second

// Token is a bearer token. A zero Expiry never expires.
type Token struct {
	Value  string
	Expiry time.Time
}

// Valid reports whether t is usable at now, renewing skew early.
func (t Token) Valid(now time.Time, skew time.Duration) bool {
	if t.Value == "" {
		return false
	}
	return t.Expiry.IsZero() || now.Add(skew).Before(t.Expiry)
}

// Source produces fresh tokens.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Token must honor cancellation.
type Source interface {
	Token(ctx context.Context) (Token, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Token, error)

// Token calls f.
func (f SourceFunc) Token(ctx context.Context) (Token, error) {
	return f(ctx)
}

type skipKey struct{}

// WithoutAuth marks ctx so Hook leaves its requests untouched.
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

func skipped(ctx context.Context) bool {
	v, _ := ctx.Value(skipKey{}).(bool)
	return v
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRefreshSkew sets how early tokens are renewed.
// Default: DefaultRefreshSkew
func WithRefreshSkew(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.skew = d
	}
}

// Manager caches a token from a Source.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Single-flight: concurrent callers needing a new token share one fetch.
// - Lifecycle: Dispose drops the token and runs the release functions
//   registered with OnDispose, once.
type Manager struct {
	source Source
	skew   time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu      sync.RWMutex
	token   Token
	release []func()
}

// NewManager creates a Manager.
func NewManager(source Source, opts ...ManagerOption) (*Manager, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	m := &Manager{source: source, skew: DefaultRefreshSkew, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Token returns the cached token, fetching a new one when it is missing or
// about to expire.
func (m *Manager) Token(ctx context.Context) (Token, error) {
	m.mu.RLock()
	tok := m.token
	m.mu.RUnlock()
	if tok.Valid(m.now(), m.skew) {
		return tok, nil
	}

	ch := m.group.DoChan("token", func() (any, error) {
		tok, err := m.source.Token(WithoutAuth(context.WithoutCancel(ctx)))
		if err != nil {
			return Token{}, err
		}
		m.mu.Lock()
		m.token = tok
		m.mu.Unlock()
		return tok, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	case <-ctx.Done():
		return Token{}, ctx.Err()
	}
}

// Invalidate drops the cached token.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = Token{}
	m.mu.Unlock()
}

// OnDispose registers f to run when the Manager is disposed, such as the
// removal of its hook from a client.
func (m *Manager) OnDispose(f func()) {
	m.mu.Lock()
	m.release = append(m.release, f)
	m.mu.Unlock()
}

// Dispose drops the token and runs the OnDispose functions in reverse
// order. It implements extension.Disposer.
func (m *Manager) Dispose(context.Context) error {
	m.mu.Lock()
	release := m.release
	m.release = nil
	m.token = Token{}
	m.mu.Unlock()

	for i := len(release) - 1; i >= 0; i-- {
		release[i]()
	}
	return nil
}

// Hook returns a gateway hook that sets the Authorization header. Requests
// that already carry one, or whose context went through WithoutAuth, are
// left alone.
func (m *Manager) Hook() gateway.Hook {
	return func(ctx context.Context, req *transport.Request) error {
		if skipped(ctx) || req.Header.Get("Authorization") != "" {
			return nil
		}
		tok, err := m.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok.Value)
		return nil
	}
}
