package reservoir

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/reservoir-geojson/internal/metrics"
)

// Options configures a Service.
type Options struct {
	// InventoryPath points at the site inventory (RDB text).
	InventoryPath string
	// Request is sent to the fetcher on every build.
	Request SeriesRequest
}

// Service runs the pipeline: fetch the raw series, parse both inputs,
// aggregate by month, assemble the feature collection, write it and keep the
// snapshot.
type Service struct {
	mu      sync.Mutex
	store   Store
	fetcher Fetcher
	writer  DocumentWriter
	opts    Options
}

// NewService creates a new Service. writer may be nil, in which case builds
// are kept in the store only.
func NewService(store Store, fetcher Fetcher, writer DocumentWriter, opts Options) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		writer:  writer,
		opts:    opts,
	}
}

// Build runs the pipeline once. Builds never overlap.
func (s *Service) Build(ctx context.Context) (snap Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
		}
		metrics.Builds.WithLabelValues(result).Inc()
		metrics.BuildDuration.Observe(time.Since(start).Seconds())
	}()

	log.Printf("DEBUG: build %s started for %d sites via %s", runID, len(s.opts.Request.Sites), s.fetcher.Name())

	sites, siteReport, err := s.loadSites()
	if err != nil {
		return Snapshot{}, err
	}
	recordReport("sites", siteReport)

	raw, err := s.fetcher.Fetch(ctx, s.opts.Request)
	source := SourceNetwork
	if cr, ok := s.fetcher.(CacheReporter); ok && cr.LastFetchFromCache() {
		source = SourceCache
	}
	if err != nil {
		metrics.Fetches.WithLabelValues(string(source), "error").Inc()
		return Snapshot{}, fmt.Errorf("fetch time series: %w: %w", ErrTransport, err)
	}
	metrics.Fetches.WithLabelValues(string(source), "ok").Inc()

	series, seriesReport, err := ParseSeries(raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse time series: %w", err)
	}
	recordReport("series", seriesReport)
	if n := seriesReport.SkippedTotal(); n > 0 {
		log.Printf("WARN: build %s skipped %d of %d time-series rows: %s", runID, n, seriesReport.Rows, formatSkips(seriesReport))
	}

	fc := Assemble(sites, Aggregate(series))

	unlocated := 0
	for _, f := range fc.Features {
		if f.Site == nil {
			unlocated++
			log.Printf("WARN: site %s has readings but no inventory entry", f.ID)
		}
	}
	metrics.FeaturesGauge.Set(float64(len(fc.Features)))
	metrics.UnlocatedGauge.Set(float64(unlocated))

	if s.writer != nil {
		if err := s.writer.Write(fc); err != nil {
			return Snapshot{}, fmt.Errorf("write output: %w: %w", ErrWrite, err)
		}
	}

	snap = Snapshot{
		RunID:        runID,
		BuiltAt:      time.Now().UTC(),
		Source:       source,
		Collection:   fc,
		SiteReport:   siteReport,
		SeriesReport: seriesReport,
	}
	s.store.Save(snap)

	log.Printf("INFO: build %s finished in %s: %d features from %s (%d readings)",
		runID, time.Since(start).Round(time.Millisecond), len(fc.Features), source, seriesReport.Accepted)
	return snap, nil
}

func (s *Service) loadSites() (*SiteTable, ParseReport, error) {
	raw, err := os.ReadFile(s.opts.InventoryPath)
	if err != nil {
		return nil, ParseReport{}, fmt.Errorf("read site inventory: %w: %w", ErrMetadata, err)
	}
	sites, report, err := ParseSites(raw)
	if err != nil {
		return nil, report, fmt.Errorf("parse site inventory: %w: %w", ErrMetadata, err)
	}
	if sites.Len() == 0 {
		log.Printf("WARN: site inventory %s has no usable rows", s.opts.InventoryPath)
	}
	return sites, report, nil
}

func recordReport(input string, r ParseReport) {
	metrics.RowsParsed.WithLabelValues(input).Add(float64(r.Rows))
	for reason, n := range r.Skipped {
		metrics.RowsSkipped.WithLabelValues(input, string(reason)).Add(float64(n))
	}
}

func formatSkips(r ParseReport) string {
	reasons := make([]string, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	out := ""
	for i, reason := range reasons {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%d", reason, r.Skipped[SkipReason(reason)])
	}
	return out
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (Snapshot, error) {
	return s.store.GetLatest()
}

// History delegates to the underlying store.
func (s *Service) History() []Snapshot {
	return s.store.History()
}
