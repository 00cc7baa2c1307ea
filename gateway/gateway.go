package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/apiclient/transport"
)

// DefaultBaseURL is the same-origin API path used when no base URL is set.
const DefaultBaseURL = "/_api"

// RequestIDHeader carries a generated id on every request.
const RequestIDHeader = "X-Request-Id"

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// Config configures a Gateway.
type Config struct {
	// BaseURL is prefixed to every relative path. Trailing slashes are stripped.
	// Default: DefaultBaseURL
	BaseURL string

	// Transport performs the requests. Required.
	Transport transport.Transport

	// NewRequestID generates request ids.
	// Default: uuid.NewString
	NewRequestID func() string
}

// Options are per-request settings merged over the defaults
// {Credentials: true, CrossOrigin: true, ResponseType: json}.
type Options struct {
	Header http.Header

	// Body is sent as-is for []byte, string and json.RawMessage; any other
	// value is JSON encoded.
	Body any

	Credentials  *bool
	CrossOrigin  *bool
	ResponseType transport.ResponseType

	// SkipHooks dispatches the request without running the hooks added by Use.
	SkipHooks bool
}

// Bool returns a pointer to b, for use in Options.
func Bool(b bool) *bool {
	return &b
}

// Hook runs on a resolved request before it is dispatched.
// Returning an error rejects the call with that error.
type Hook func(ctx context.Context, req *transport.Request) error

// Gateway issues requests against a single backend.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: every rejection is an *Error, ErrCanceled, or a hook error.
type Gateway struct {
	baseURL      string
	transport    transport.Transport
	newRequestID func() string

	mu    sync.RWMutex
	hooks []*hookEntry
}

type hookEntry struct {
	hook Hook
}

// New creates a new Gateway.
func New(config Config) (*Gateway, error) {
	if config.Transport == nil {
		return nil, ErrNilTransport
	}
	if config.NewRequestID == nil {
		config.NewRequestID = uuid.NewString
	}

	return &Gateway{
		baseURL:      NormalizeBaseURL(config.BaseURL),
		transport:    config.Transport,
		newRequestID: config.NewRequestID,
	}, nil
}

// NormalizeBaseURL strips trailing slashes and applies the default.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return DefaultBaseURL
	}
	return baseURL
}

// BaseURL returns the normalized base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Resolve returns the URL a path is issued against. Paths that start with
// a scheme are used unchanged; everything else is appended to the base URL.
func (g *Gateway) Resolve(path string) string {
	if schemePattern.MatchString(path) {
		return path
	}
	return g.baseURL + path
}

// Use appends a request hook. Hooks run in registration order. The
// returned function removes the hook; calls already dispatched keep it.
func (g *Gateway) Use(hook Hook) (remove func()) {
	if hook == nil {
		return func() {}
	}
	entry := &hookEntry{hook: hook}
	g.mu.Lock()
	g.hooks = append(g.hooks, entry)
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.hooks = slices.DeleteFunc(g.hooks, func(e *hookEntry) bool { return e == entry })
			g.mu.Unlock()
		})
	}
}

func (g *Gateway) snapshotHooks() []Hook {
	g.mu.RLock()
	defer g.mu.RUnlock()
	hooks := make([]Hook, len(g.hooks))
	for i, e := range g.hooks {
		hooks[i] = e.hook
	}
	return hooks
}

// Request issues a request and returns immediately with its Call.
func (g *Gateway) Request(ctx context.Context, method, path string, opts Options) *Call {
	req, err := g.build(method, path, opts)
	if err != nil {
		return Rejected(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	call := newCall(cancel)

	var hooks []Hook
	if !opts.SkipHooks {
		hooks = g.snapshotHooks()
	}

	go func() {
		defer cancel()

		for _, hook := range hooks {
			if err := hook(ctx, req); err != nil {
				call.finish(nil, g.rejection(ctx, err))
				return
			}
		}

		resp, err := g.transport.RoundTrip(ctx, req)
		if err != nil {
			call.finish(nil, g.normalize(ctx, err))
			return
		}
		call.finish(&Response{
			StatusCode:   resp.StatusCode,
			Header:       resp.Header,
			Body:         resp.Body,
			ResponseType: req.ResponseType,
		}, nil)
	}()

	return call
}

func (g *Gateway) build(method, path string, opts Options) (*transport.Request, error) {
	if strings.TrimSpace(method) == "" {
		return nil, ErrInvalidMethod
	}

	req := &transport.Request{
		Method:              strings.ToUpper(method),
		URL:                 g.Resolve(path),
		Header:              make(http.Header),
		CredentialsIncluded: true,
		CrossOrigin:         true,
		ResponseType:        transport.ResponseJSON,
	}
	if opts.Credentials != nil {
		req.CredentialsIncluded = *opts.Credentials
	}
	if opts.CrossOrigin != nil {
		req.CrossOrigin = *opts.CrossOrigin
	}
	if opts.ResponseType != "" {
		req.ResponseType = opts.ResponseType
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, g.newRequestID())
	}

	switch body := opts.Body.(type) {
	case nil:
	case []byte:
		req.Body = body
	case string:
		req.Body = []byte(body)
	case json.RawMessage:
		req.Body = body
		setDefault(req.Header, "Content-Type", "application/json")
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode body: %w", err)
		}
		req.Body = data
		setDefault(req.Header, "Content-Type", "application/json")
	}

	return req, nil
}

func setDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}

// rejection classifies a non-transport failure.
func (g *Gateway) rejection(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCanceled, context.Canceled)
	}
	return err
}

// normalize converts a transport rejection into an *Error. Cancellation is
// reported separately; a deadline counts as an unreachable backend.
func (g *Gateway) normalize(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCanceled, context.Canceled)
	}

	var terr *transport.Error
	if !errors.As(err, &terr) {
		return &Error{
			Body: normalizeBody(nil, g.baseURL),
			Err:  err,
		}
	}

	var raw []byte
	if terr.StatusCode != 0 {
		raw = terr.Body
	}
	return &Error{
		StatusCode: terr.StatusCode,
		Body:       normalizeBody(raw, g.baseURL),
		Raw:        raw,
		Err:        terr.Err,
	}
}
