package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonwraymond/apiclient/cache"
	"github.com/jonwraymond/apiclient/gateway"
	"github.com/jonwraymond/apiclient/observe"
)

// Requester issues gateway requests. *gateway.Gateway implements it.
type Requester interface {
	Request(ctx context.Context, method, path string, opts gateway.Options) *gateway.Call
}

// Options configures a Store.
type Options struct {
	// Cache backs offline reads. Nil disables read caching.
	Cache cache.Cache

	// Policy controls how long reads are cached.
	// Default: cache.DefaultPolicy()
	Policy *cache.Policy

	// Online reports the owning client's connection state.
	// Default: always online
	Online func() bool

	// Logger logs reads served from the cache.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Result is the backend acknowledgement of a write.
type Result struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// Store is a handle on one named backend store.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: backend failures are the gateway's *gateway.Error.
type Store struct {
	name      string
	prefix    string
	requester Requester
	online    func() bool
	logger    observe.Logger
	reads     *cache.ReadThrough
	keyer     cache.Keyer
}

// New opens a store named name.
func New(requester Requester, name string, opts Options) (*Store, error) {
	if requester == nil {
		return nil, ErrNilRequester
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidStoreName
	}
	if opts.Online == nil {
		opts.Online = func() bool { return true }
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}

	s := &Store{
		name:      name,
		prefix:    "/" + url.PathEscape(name),
		requester: requester,
		online:    opts.Online,
		logger:    opts.Logger.With(observe.F("store", name)),
		keyer:     cache.NewDefaultKeyer(),
	}

	if opts.Cache != nil {
		policy := cache.DefaultPolicy()
		if opts.Policy != nil {
			policy = *opts.Policy
		}
		reads, err := cache.NewReadThrough(opts.Cache, policy, IsUnreachable)
		if err != nil {
			return nil, err
		}
		s.reads = reads
	}

	return s, nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Path returns the request path for a document id, or the store root for "".
func (s *Store) Path(id string) string {
	if id == "" {
		return s.prefix + "/"
	}
	return s.prefix + "/" + url.PathEscape(id)
}

// Find loads the document id into v.
func (s *Store) Find(ctx context.Context, id string, v any) error {
	if id == "" {
		return ErrInvalidID
	}
	data, err := s.load(ctx, s.docKey(id), s.Path(id))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// FindAll loads every document into v, which must point to a slice.
func (s *Store) FindAll(ctx context.Context, v any) error {
	return s.Query(ctx, nil, v)
}

// Query lists documents through _all_docs. Parameter values are JSON
// encoded, so {"startkey": "a"} is sent as startkey="a". include_docs is
// always set.
func (s *Store) Query(ctx context.Context, params map[string]any, v any) error {
	values := url.Values{}
	for k, p := range params {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("remote: encode %s: %w", k, err)
		}
		values.Set(k, string(data))
	}
	values.Set("include_docs", "true")

	key, err := s.keyer.Key(s.name+":query", params)
	if err != nil {
		key = ""
	}

	data, err := s.load(ctx, key, s.prefix+"/_all_docs?"+values.Encode())
	if err != nil {
		return err
	}

	var page struct {
		Rows []struct {
			Doc json.RawMessage `json:"doc"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return fmt.Errorf("remote: decode rows: %w", err)
	}

	docs := make([]json.RawMessage, 0, len(page.Rows))
	for _, row := range page.Rows {
		if len(row.Doc) > 0 && string(row.Doc) != "null" {
			docs = append(docs, row.Doc)
		}
	}
	encoded, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, v)
}

// Save writes doc under id.
func (s *Store) Save(ctx context.Context, id string, doc any) (Result, error) {
	if id == "" {
		return Result{}, ErrInvalidID
	}
	res, err := s.write(ctx, http.MethodPut, s.Path(id), doc)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return res, err
}

// Remove deletes the document id. rev is the revision being deleted and may
// be empty when the backend does not track revisions.
func (s *Store) Remove(ctx context.Context, id, rev string) (Result, error) {
	if id == "" {
		return Result{}, ErrInvalidID
	}
	path := s.Path(id)
	if rev != "" {
		path += "?rev=" + url.QueryEscape(rev)
	}
	res, err := s.write(ctx, http.MethodDelete, path, nil)
	if err == nil {
		s.invalidate(ctx, id)
	}
	return res, err
}

func (s *Store) write(ctx context.Context, method, path string, body any) (Result, error) {
	resp, err := s.requester.Request(ctx, method, path, gateway.Options{Body: body}).Wait(ctx)
	if err != nil {
		return Result{}, err
	}
	var res Result
	if len(resp.Body) > 0 {
		if err := resp.Decode(&res); err != nil {
			return Result{}, fmt.Errorf("remote: decode result: %w", err)
		}
	}
	return res, nil
}

func (s *Store) fetch(path string) cache.Fetcher {
	return func(ctx context.Context) ([]byte, error) {
		resp, err := s.requester.Request(ctx, http.MethodGet, path, gateway.Options{}).Wait(ctx)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}
}

func (s *Store) load(ctx context.Context, key, path string) ([]byte, error) {
	if s.reads == nil || key == "" {
		return s.fetch(path)(ctx)
	}
	data, fromCache, err := s.reads.Load(ctx, key, s.online(), s.fetch(path))
	if fromCache {
		s.logger.Debug(ctx, "served from cache", observe.F("path", path))
	}
	return data, err
}

func (s *Store) docKey(id string) string {
	return s.name + ":doc:" + id
}

func (s *Store) invalidate(ctx context.Context, id string) {
	if s.reads == nil {
		return
	}
	_ = s.reads.Invalidate(ctx, s.docKey(id))
	_ = s.reads.InvalidatePrefix(ctx, s.name+":query:")
}
