package providers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/reservoir-geojson/internal/reservoir"
)

type countingFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *countingFetcher) Name() string { return "counting" }

func (f *countingFetcher) Fetch(ctx context.Context, req reservoir.SeriesRequest) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestCachedFetcherPrefersCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usgsFull.txt")
	if err := os.WriteFile(path, []byte("cached"), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}
	inner := &countingFetcher{data: []byte("fresh")}
	c := NewCachedFetcher(inner, path, 0)

	data, err := c.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "cached" {
		t.Errorf("expected cached bytes, got %q", data)
	}
	if inner.calls != 0 {
		t.Errorf("inner fetcher must not run on a cache hit, ran %d times", inner.calls)
	}
	if !c.LastFetchFromCache() {
		t.Errorf("expected cache hit to be reported")
	}
}

func TestCachedFetcherFillsCacheOnMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "usgsFull.txt")
	inner := &countingFetcher{data: []byte("fresh")}
	c := NewCachedFetcher(inner, path, 0)

	for i := 0; i < 2; i++ {
		data, err := c.Fetch(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if string(data) != "fresh" {
			t.Errorf("fetch %d: unexpected bytes %q", i, data)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one upstream fetch, got %d", inner.calls)
	}
	if !c.LastFetchFromCache() {
		t.Errorf("second fetch should come from cache")
	}

	onDisk, err := os.ReadFile(path)
	if err != nil || string(onDisk) != "fresh" {
		t.Errorf("cache file not written: %q, %v", onDisk, err)
	}
}

func TestCachedFetcherExpiresOldCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usgsFull.txt")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	inner := &countingFetcher{data: []byte("fresh")}
	c := NewCachedFetcher(inner, path, 24*time.Hour)

	data, err := c.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "fresh" || inner.calls != 1 || c.LastFetchFromCache() {
		t.Errorf("expected a fresh fetch, got %q (calls=%d)", data, inner.calls)
	}
}

func TestCachedFetcherPropagatesTransportError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usgsFull.txt")
	boom := errors.New("boom")
	c := NewCachedFetcher(&countingFetcher{err: boom}, path, 0)

	if _, err := c.Fetch(context.Background(), testRequest()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("no cache file should be written on failure")
	}
}
