package gateway

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/apiclient/transport"
)

// recordingTransport records requests and answers with respond.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*transport.Request
	respond  func(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

func (r *recordingTransport) RoundTrip(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.respond == nil {
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	}
	return r.respond(ctx, req)
}

func (r *recordingTransport) last() *transport.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return nil
	}
	return r.requests[len(r.requests)-1]
}

func newTestGateway(t *testing.T, baseURL string, rt *recordingTransport) *Gateway {
	t.Helper()
	gw, err := New(Config{BaseURL: baseURL, Transport: rt, NewRequestID: func() string { return "req-1" }})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return gw
}

func wait(t *testing.T, call *Call) (*Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := call.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) && call.State() == StatePending {
		t.Fatal("call did not complete")
	}
	return resp, err
}

func TestNew_RequiresTransport(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilTransport) {
		t.Errorf("New() error = %v, want ErrNilTransport", err)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultBaseURL},
		{"https://x.test", "https://x.test"},
		{"https://x.test/", "https://x.test"},
		{"https://x.test///", "https://x.test"},
		{"/_api/", "/_api"},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGateway_Resolve(t *testing.T) {
	gw := newTestGateway(t, "https://x.test/", &recordingTransport{})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"relative", "/docs/1", "https://x.test/docs/1"},
		{"root", "/", "https://x.test/"},
		{"absolute http", "http://other.test/a", "http://other.test/a"},
		{"absolute https", "https://other.test/a", "https://other.test/a"},
		{"other scheme", "ws://other.test/a", "ws://other.test/a"},
		{"http-like path", "/httpbin", "https://x.test/httpbin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gw.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestGateway_RequestAppliesDefaults(t *testing.T) {
	rt := &recordingTransport{}
	gw := newTestGateway(t, "https://x.test", rt)

	if _, err := wait(t, gw.Request(context.Background(), "get", "/docs/1", Options{})); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	req := rt.last()
	if req.Method != http.MethodGet {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.URL != "https://x.test/docs/1" {
		t.Errorf("URL = %q, want https://x.test/docs/1", req.URL)
	}
	if !req.CredentialsIncluded {
		t.Error("CredentialsIncluded should default to true")
	}
	if !req.CrossOrigin {
		t.Error("CrossOrigin should default to true")
	}
	if req.ResponseType != transport.ResponseJSON {
		t.Errorf("ResponseType = %q, want json", req.ResponseType)
	}
	if req.Header.Get(RequestIDHeader) != "req-1" {
		t.Errorf("%s = %q, want req-1", RequestIDHeader, req.Header.Get(RequestIDHeader))
	}
}

func TestGateway_RequestOverridesDefaults(t *testing.T) {
	rt := &recordingTransport{}
	gw := newTestGateway(t, "https://x.test", rt)

	call := gw.Request(context.Background(), http.MethodPut, "/docs/1", Options{
		Header:       http.Header{"X-Custom": []string{"1"}},
		Body:         map[string]any{"title": "hello"},
		Credentials:  Bool(false),
		CrossOrigin:  Bool(false),
		ResponseType: transport.ResponseText,
	})
	if _, err := wait(t, call); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	req := rt.last()
	if req.CredentialsIncluded {
		t.Error("CredentialsIncluded = true, want false")
	}
	if req.CrossOrigin {
		t.Error("CrossOrigin = true, want false")
	}
	if req.ResponseType != transport.ResponseText {
		t.Errorf("ResponseType = %q, want text", req.ResponseType)
	}
	if req.Header.Get("X-Custom") != "1" {
		t.Errorf("X-Custom = %q, want 1", req.Header.Get("X-Custom"))
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", req.Header.Get("Content-Type"))
	}
	if string(req.Body) != `{"title":"hello"}` {
		t.Errorf("Body = %s", req.Body)
	}
}

func TestGateway_RequestInvalidMethod(t *testing.T) {
	gw := newTestGateway(t, "", &recordingTransport{})
	_, err := wait(t, gw.Request(context.Background(), "", "/", Options{}))
	if !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("error = %v, want ErrInvalidMethod", err)
	}
}

func TestGateway_ResponseDecode(t *testing.T) {
	rt := &recordingTransport{respond: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte(`{"_id":"1","title":"a"}`)}, nil
	}}
	gw := newTestGateway(t, "https://x.test", rt)

	resp, err := wait(t, gw.Request(context.Background(), http.MethodGet, "/docs/1", Options{}))
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	var doc struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	}
	if err := resp.Decode(&doc); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if doc.ID != "1" || doc.Title != "a" {
		t.Errorf("Decode() = %+v", doc)
	}
}

func TestGateway_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   any
	}{
		{
			name:       "json body surfaces verbatim",
			err:        &transport.Error{StatusCode: 404, Body: []byte(`{"error":"not_found","reason":"missing"}`)},
			wantStatus: 404,
			wantBody:   map[string]any{"error": "not_found", "reason": "missing"},
		},
		{
			name:       "json array body surfaces verbatim",
			err:        &transport.Error{StatusCode: 409, Body: []byte(`["conflict"]`)},
			wantStatus: 409,
			wantBody:   []any{"conflict"},
		},
		{
			name:       "non-json body is wrapped",
			err:        &transport.Error{StatusCode: 502, Body: []byte("Bad Gateway")},
			wantStatus: 502,
			wantBody:   map[string]any{"error": "Bad Gateway"},
		},
		{
			name:       "no body names the base url",
			err:        &transport.Error{Err: errors.New("connection refused")},
			wantStatus: 0,
			wantBody:   map[string]any{"error": "Cannot connect to backend at https://x.test"},
		},
		{
			name:       "foreign error names the base url",
			err:        errors.New("boom"),
			wantStatus: 0,
			wantBody:   map[string]any{"error": "Cannot connect to backend at https://x.test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &recordingTransport{respond: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
				return nil, tt.err
			}}
			gw := newTestGateway(t, "https://x.test", rt)

			_, err := wait(t, gw.Request(context.Background(), http.MethodGet, "/docs/1", Options{}))

			var gerr *Error
			if !errors.As(err, &gerr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if gerr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", gerr.StatusCode, tt.wantStatus)
			}
			if !reflect.DeepEqual(gerr.Body, tt.wantBody) {
				t.Errorf("Body = %#v, want %#v", gerr.Body, tt.wantBody)
			}
			if gerr.Unreachable() != (tt.wantStatus == 0) {
				t.Errorf("Unreachable() = %v", gerr.Unreachable())
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"error and reason", &Error{StatusCode: 404, Body: map[string]any{"error": "not_found", "reason": "missing"}}, "not_found: missing"},
		{"error only", &Error{Body: map[string]any{"error": "Cannot connect to backend at /_api"}}, "Cannot connect to backend at /_api"},
		{"non-object body", &Error{StatusCode: 409, Body: []any{"x"}}, `["x"]`},
		{"nil body", &Error{StatusCode: 500}, "request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestCall_CancelReachesTransport checks that the cancel capability survives
// error normalization and aborts the in-flight transport request.
func TestCall_CancelReachesTransport(t *testing.T) {
	started := make(chan struct{})
	observed := make(chan error, 1)
	rt := &recordingTransport{respond: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		close(started)
		<-ctx.Done()
		observed <- ctx.Err()
		return nil, &transport.Error{Err: ctx.Err()}
	}}
	gw := newTestGateway(t, "https://x.test", rt)

	call := gw.Request(context.Background(), http.MethodGet, "/slow", Options{})
	<-started
	if call.State() != StatePending {
		t.Fatalf("State() = %v, want pending", call.State())
	}

	call.Cancel()

	select {
	case err := <-observed:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("transport ctx error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transport was not canceled")
	}

	_, err := wait(t, call)
	if !errors.Is(err, ErrCanceled) {
		t.Errorf("error = %v, want ErrCanceled", err)
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		t.Error("cancellation must not be normalized into *Error")
	}
	if call.State() != StateRejected {
		t.Errorf("State() = %v, want rejected", call.State())
	}
}

func TestCall_CancelAfterCompletionIsNoop(t *testing.T) {
	gw := newTestGateway(t, "https://x.test", &recordingTransport{})
	call := gw.Request(context.Background(), http.MethodGet, "/", Options{})
	if _, err := wait(t, call); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	call.Cancel()
	if call.State() != StateResolved {
		t.Errorf("State() = %v, want resolved", call.State())
	}
	if call.Err() != nil {
		t.Errorf("Err() = %v, want nil", call.Err())
	}
}

func TestGateway_DeadlineCountsAsUnreachable(t *testing.T) {
	rt := &recordingTransport{respond: func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		<-ctx.Done()
		return nil, &transport.Error{Err: ctx.Err()}
	}}
	gw := newTestGateway(t, "https://x.test", rt)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := wait(t, gw.Request(ctx, http.MethodGet, "/", Options{}))
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if !gerr.Unreachable() {
		t.Error("deadline should surface as unreachable")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap context.DeadlineExceeded, got %v", err)
	}
}

func TestGateway_Hooks(t *testing.T) {
	rt := &recordingTransport{}
	gw := newTestGateway(t, "https://x.test", rt)

	var order []string
	gw.Use(func(ctx context.Context, req *transport.Request) error {
		order = append(order, "first")
		req.Header.Set("Authorization", "Bearer t")
		return nil
	})
	gw.Use(func(ctx context.Context, req *transport.Request) error {
		order = append(order, "second")
		return nil
	})
	gw.Use(nil)

	if _, err := wait(t, gw.Request(context.Background(), http.MethodGet, "/", Options{})); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Errorf("hook order = %v", order)
	}
	if rt.last().Header.Get("Authorization") != "Bearer t" {
		t.Error("hook header not applied")
	}
}

func TestGateway_HookErrorRejects(t *testing.T) {
	rt := &recordingTransport{}
	gw := newTestGateway(t, "https://x.test", rt)
	hookErr := errors.New("no token")
	gw.Use(func(ctx context.Context, req *transport.Request) error { return hookErr })

	_, err := wait(t, gw.Request(context.Background(), http.MethodGet, "/", Options{}))
	if !errors.Is(err, hookErr) {
		t.Errorf("error = %v, want hook error", err)
	}
	if rt.last() != nil {
		t.Error("transport should not be called when a hook fails")
	}
}

func TestGateway_RemoveHook(t *testing.T) {
	rt := &recordingTransport{}
	gw := newTestGateway(t, "https://x.test", rt)

	var calls []string
	removeA := gw.Use(func(ctx context.Context, req *transport.Request) error {
		calls = append(calls, "a")
		return nil
	})
	gw.Use(func(ctx context.Context, req *transport.Request) error {
		calls = append(calls, "b")
		return nil
	})

	removeA()
	removeA()
	gw.Use(nil)()

	if _, err := wait(t, gw.Request(context.Background(), http.MethodGet, "/", Options{})); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if !reflect.DeepEqual(calls, []string{"b"}) {
		t.Errorf("hooks run = %v, want [b]", calls)
	}
}

func TestGateway_SkipHooks(t *testing.T) {
	rt := &recordingTransport{}
	gw := newTestGateway(t, "https://x.test", rt)
	gw.Use(func(ctx context.Context, req *transport.Request) error { return errors.New("no token") })

	if _, err := wait(t, gw.Request(context.Background(), http.MethodGet, "/", Options{SkipHooks: true})); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if rt.last() == nil {
		t.Fatal("transport should be called")
	}
	if rt.last().Header.Get(RequestIDHeader) == "" {
		t.Error("request id should still be stamped")
	}
}

func TestRejectedAndResolved(t *testing.T) {
	errBoom := errors.New("boom")
	if Rejected(errBoom).State() != StateRejected {
		t.Error("Rejected() should be rejected")
	}
	if Resolved(&Response{}).State() != StateResolved {
		t.Error("Resolved() should be resolved")
	}
}
