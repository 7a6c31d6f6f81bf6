package providers

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/i474232898/reservoir-geojson/internal/output"
	"github.com/i474232898/reservoir-geojson/internal/reservoir"
)

// CachedFetcher answers from a file holding a previous response and only
// calls the wrapped fetcher when that file is missing or older than MaxAge.
type CachedFetcher struct {
	inner  reservoir.Fetcher
	path   string
	maxAge time.Duration // 0 = never expires

	lastHit atomic.Bool
}

func NewCachedFetcher(inner reservoir.Fetcher, path string, maxAge time.Duration) *CachedFetcher {
	return &CachedFetcher{
		inner:  inner,
		path:   path,
		maxAge: maxAge,
	}
}

func (c *CachedFetcher) Name() string {
	return "cache(" + c.inner.Name() + ")"
}

// LastFetchFromCache reports whether the most recent Fetch was a cache hit.
func (c *CachedFetcher) LastFetchFromCache() bool {
	return c.lastHit.Load()
}

func (c *CachedFetcher) Fetch(ctx context.Context, req reservoir.SeriesRequest) ([]byte, error) {
	data, ok, err := c.readCache()
	if err != nil {
		return nil, err
	}
	if ok {
		c.lastHit.Store(true)
		log.Printf("INFO: using cached time series %s (%d bytes)", c.path, len(data))
		return data, nil
	}

	c.lastHit.Store(false)
	log.Printf("INFO: no usable cache at %s; fetching from %s", c.path, c.inner.Name())
	data, err = c.inner.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := output.WriteFileAtomic(c.path, data, 0o644); err != nil {
		// The response is still good; the next build will fetch again.
		log.Printf("WARN: could not cache time series at %s: %v", c.path, err)
	} else {
		log.Printf("INFO: cached time series at %s (%d bytes)", c.path, len(data))
	}
	return data, nil
}

func (c *CachedFetcher) readCache() ([]byte, bool, error) {
	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if info.IsDir() {
		return nil, false, &fs.PathError{Op: "read cache", Path: c.path, Err: errors.New("is a directory")}
	}
	if c.maxAge > 0 && time.Since(info.ModTime()) > c.maxAge {
		log.Printf("DEBUG: cache %s is older than %s", c.path, c.maxAge)
		return nil, false, nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
