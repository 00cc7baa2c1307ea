package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/http2"
)

// HTTPConfig configures the net/http transport.
type HTTPConfig struct {
	// Origin resolves relative request URLs (same-origin base URLs like "/_api").
	// Default: "http://localhost"
	Origin string `yaml:"origin"`

	// Timeout bounds a whole request including reading the body.
	// Default: 30 seconds
	Timeout time.Duration `yaml:"timeout"`

	// HTTP2 negotiates HTTP/2 over TLS when the server supports it.
	HTTP2 bool `yaml:"http2"`

	// MaxBodyBytes caps how much of a response body is read.
	// Default: 10 MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Client replaces the internally built client when set.
	// Its Jar is ignored; credentials use the transport's own jar.
	Client *http.Client `yaml:"-"`
}

// HTTP is a Transport backed by net/http.
type HTTP struct {
	config HTTPConfig
	client *http.Client
	origin *url.URL
	jar    http.CookieJar
}

// NewHTTP creates a new net/http transport.
func NewHTTP(config HTTPConfig) (*HTTP, error) {
	if config.Origin == "" {
		config.Origin = "http://localhost"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 10 << 20
	}

	origin, err := url.Parse(config.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, config.Origin)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := config.Client
	if client == nil {
		client, err = buildClient(config)
		if err != nil {
			return nil, err
		}
	} else {
		// Cookies are attached per request depending on CredentialsIncluded.
		c := *client
		c.Jar = nil
		client = &c
	}

	return &HTTP{
		config: config,
		client: client,
		origin: origin,
		jar:    jar,
	}, nil
}

func buildClient(config HTTPConfig) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("transport: default transport is not *http.Transport")
	}
	t := base.Clone()
	if config.HTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("configure http2: %w", err)
		}
	}
	return &http.Client{
		Transport: t,
		Timeout:   config.Timeout,
	}, nil
}

// RoundTrip performs req with net/http.
func (h *HTTP) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	target, err := h.resolve(req.URL)
	if err != nil {
		return nil, &Error{Err: err}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, &Error{Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", req.ResponseType.Accept())
	}
	if !req.CrossOrigin {
		httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	if req.CredentialsIncluded {
		for _, c := range h.jar.Cookies(target) {
			httpReq.AddCookie(c)
		}
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if req.CredentialsIncluded {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			h.jar.SetCookies(target, cookies)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.config.MaxBodyBytes))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if !Successful(resp.StatusCode) {
		return nil, &Error{StatusCode: resp.StatusCode, Body: data}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (h *HTTP) resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.IsAbs() {
		return u, nil
	}
	return h.origin.ResolveReference(u), nil
}

// CloseIdleConnections closes idle keep-alive connections.
func (h *HTTP) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}

// Config returns the transport configuration.
func (h *HTTP) Config() HTTPConfig {
	return h.config
}

var _ Transport = (*HTTP)(nil)
