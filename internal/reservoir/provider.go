package reservoir

import (
	"context"
)

// Fetcher supplies the raw instantaneous-values document (NWIS RDB text).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, req SeriesRequest) ([]byte, error)
}

// CacheReporter is implemented by fetchers that may answer from a local copy.
type CacheReporter interface {
	LastFetchFromCache() bool
}

// DocumentWriter persists the finished output document.
type DocumentWriter interface {
	Write(doc any) error
}

// Store is the contract the in-memory snapshot store must satisfy.
type Store interface {
	Save(snapshot Snapshot)
	GetLatest() (Snapshot, error)
	History() []Snapshot
}
