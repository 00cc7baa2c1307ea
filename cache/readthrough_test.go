package cache

import (
	"context"
	"errors"
	"testing"
)

var errUnreachable = errors.New("unreachable")

type countingFetcher struct {
	calls int
	data  []byte
	err   error
}

func (f *countingFetcher) fetch(context.Context) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func newReadThrough(t *testing.T, policy Policy) *ReadThrough {
	t.Helper()
	r, err := NewReadThrough(NewMemoryCache(policy), policy, func(err error) bool {
		return errors.Is(err, errUnreachable)
	})
	if err != nil {
		t.Fatalf("NewReadThrough() error = %v", err)
	}
	return r
}

func TestNewReadThrough_NilCache(t *testing.T) {
	if _, err := NewReadThrough(nil, DefaultPolicy(), nil); !errors.Is(err, ErrNilCache) {
		t.Errorf("error = %v, want ErrNilCache", err)
	}
}

func TestReadThrough_OnlineAlwaysFetches(t *testing.T) {
	r := newReadThrough(t, DefaultPolicy())
	ctx := context.Background()
	f := &countingFetcher{data: []byte("fresh")}

	for range 2 {
		data, fromCache, err := r.Load(ctx, "k", true, f.fetch)
		if err != nil || fromCache || string(data) != "fresh" {
			t.Fatalf("Load() = %q, %v, %v", data, fromCache, err)
		}
	}
	if f.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls)
	}
}

func TestReadThrough_FallbackOnUnreachable(t *testing.T) {
	r := newReadThrough(t, DefaultPolicy())
	ctx := context.Background()

	_, _, _ = r.Load(ctx, "k", true, (&countingFetcher{data: []byte("v1")}).fetch)

	data, fromCache, err := r.Load(ctx, "k", true, (&countingFetcher{err: errUnreachable}).fetch)
	if err != nil || !fromCache || string(data) != "v1" {
		t.Errorf("Load() = %q, %v, %v, want cached v1", data, fromCache, err)
	}
}

func TestReadThrough_OtherErrorsAreReturned(t *testing.T) {
	r := newReadThrough(t, DefaultPolicy())
	ctx := context.Background()
	notFound := errors.New("not found")

	_, _, _ = r.Load(ctx, "k", true, (&countingFetcher{data: []byte("v1")}).fetch)

	if _, _, err := r.Load(ctx, "k", true, (&countingFetcher{err: notFound}).fetch); !errors.Is(err, notFound) {
		t.Errorf("Load() error = %v, want not found", err)
	}
}

func TestReadThrough_OfflineServesCacheWithoutFetching(t *testing.T) {
	r := newReadThrough(t, DefaultPolicy())
	ctx := context.Background()

	_, _, _ = r.Load(ctx, "k", true, (&countingFetcher{data: []byte("v1")}).fetch)

	f := &countingFetcher{data: []byte("v2")}
	data, fromCache, err := r.Load(ctx, "k", false, f.fetch)
	if err != nil || !fromCache || string(data) != "v1" {
		t.Errorf("Load() = %q, %v, %v, want cached v1", data, fromCache, err)
	}
	if f.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", f.calls)
	}
}

func TestReadThrough_OfflineMissFetches(t *testing.T) {
	r := newReadThrough(t, DefaultPolicy())
	f := &countingFetcher{data: []byte("v")}

	if _, _, err := r.Load(context.Background(), "k", false, f.fetch); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}
}

func TestReadThrough_Disabled(t *testing.T) {
	r := newReadThrough(t, NoCachePolicy())
	ctx := context.Background()

	_, _, _ = r.Load(ctx, "k", true, (&countingFetcher{data: []byte("v1")}).fetch)
	if _, _, err := r.Load(ctx, "k", true, (&countingFetcher{err: errUnreachable}).fetch); !errors.Is(err, errUnreachable) {
		t.Errorf("Load() error = %v, want unreachable with caching disabled", err)
	}
}

func TestReadThrough_Invalidate(t *testing.T) {
	r := newReadThrough(t, DefaultPolicy())
	ctx := context.Background()

	_, _, _ = r.Load(ctx, "todos:doc:1", true, (&countingFetcher{data: []byte("a")}).fetch)
	_, _, _ = r.Load(ctx, "todos:query:x", true, (&countingFetcher{data: []byte("b")}).fetch)

	_ = r.Invalidate(ctx, "todos:doc:1")
	_ = r.InvalidatePrefix(ctx, "todos:query:")

	for _, key := range []string{"todos:doc:1", "todos:query:x"} {
		if _, _, err := r.Load(ctx, key, true, (&countingFetcher{err: errUnreachable}).fetch); err == nil {
			t.Errorf("Load(%q) served data after invalidation", key)
		}
	}
}
