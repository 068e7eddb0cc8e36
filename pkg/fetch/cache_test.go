package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestCacheFetchesOncePerKey(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32
	fn := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("doc"), nil
	}

	for i := 0; i < 3; i++ {
		doc, err := cache.GetOrFetch(context.Background(), "Sloan-518", fn)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(doc) != "doc" {
			t.Fatalf("doc = %q, want %q", doc, "doc")
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache.Len() = %d, want 1", cache.Len())
	}
}

func TestCacheCollapsesConcurrentFirstAccesses(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("doc"), nil
	}

	const workers = 16
	var eg errgroup.Group
	started := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			started <- struct{}{}
			doc, err := cache.GetOrFetch(context.Background(), "Carvell-50", fn)
			if err != nil {
				return err
			}
			if string(doc) != "doc" {
				return fmt.Errorf("doc = %q, want %q", doc, "doc")
			}
			return nil
		})
	}
	for i := 0; i < workers; i++ {
		<-started
	}
	close(release)

	if err := eg.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
}

func TestCacheKeysDoNotSerializeOnEachOther(t *testing.T) {
	cache := NewCache()
	blocked := make(chan struct{})
	release := make(chan struct{})

	var eg errgroup.Group
	eg.Go(func() error {
		_, err := cache.GetOrFetch(context.Background(), "slow", func(ctx context.Context) ([]byte, error) {
			close(blocked)
			<-release
			return []byte("slow"), nil
		})
		return err
	})

	<-blocked
	// While "slow" is mid-fetch, an unrelated key must complete.
	doc, err := cache.GetOrFetch(context.Background(), "fast", func(ctx context.Context) ([]byte, error) {
		return []byte("fast"), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc) != "fast" {
		t.Fatalf("doc = %q, want %q", doc, "fast")
	}

	close(release)
	if err := eg.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCacheDoesNotCacheTransientErrors(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32
	fn := func(ctx context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return []byte("recovered"), nil
	}

	if _, err := cache.GetOrFetch(context.Background(), "Flaky-1", fn); err == nil {
		t.Fatal("expected error on first fetch")
	}
	doc, err := cache.GetOrFetch(context.Background(), "Flaky-1", fn)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if string(doc) != "recovered" {
		t.Fatalf("doc = %q, want %q", doc, "recovered")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("fetches = %d, want 2", got)
	}
}

func TestCacheCachesNotFound(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32
	fn := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, fmt.Errorf("%w: Nonexistent-1", ErrNotFound)
	}

	for i := 0; i < 2; i++ {
		_, err := cache.GetOrFetch(context.Background(), "Nonexistent-1", fn)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
	if cache.Len() != 0 {
		t.Fatalf("cache.Len() = %d, want 0", cache.Len())
	}
}
