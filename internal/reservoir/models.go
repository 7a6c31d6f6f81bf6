package reservoir

import (
	"time"
)

// MonthKey is a year-month bucket key such as "2009-03".
type MonthKey string

const monthKeyLayout = "2006-01"

// Site is the static metadata of one monitored reservoir, taken from one
// inventory row.
type Site struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SiteTable maps site IDs to Sites and remembers the order in which IDs were
// first seen. A later Put for a known ID replaces the value in place.
type SiteTable struct {
	order []string
	sites map[string]Site
}

func NewSiteTable() *SiteTable {
	return &SiteTable{sites: make(map[string]Site)}
}

func (t *SiteTable) Put(s Site) {
	if _, ok := t.sites[s.ID]; !ok {
		t.order = append(t.order, s.ID)
	}
	t.sites[s.ID] = s
}

func (t *SiteTable) Get(id string) (Site, bool) {
	s, ok := t.sites[id]
	return s, ok
}

// IDs returns site IDs in first-seen order.
func (t *SiteTable) IDs() []string {
	return append([]string(nil), t.order...)
}

func (t *SiteTable) Len() int {
	return len(t.order)
}

// Reading is a single value tagged with the site and month it belongs to.
type Reading struct {
	Site  string
	Month MonthKey
	Value int64
}

// MonthlyBucket holds the raw readings of one site for one month in arrival
// order. Buckets are only created by appending a reading, so they are never
// empty.
type MonthlyBucket []int64

// siteSeries is the per-site part of a SeriesTable.
type siteSeries struct {
	months  []MonthKey
	buckets map[MonthKey]MonthlyBucket
}

// SeriesTable maps site ID -> month -> bucket. Sites and months keep their
// first-seen order.
type SeriesTable struct {
	order []string
	sites map[string]*siteSeries
}

func NewSeriesTable() *SeriesTable {
	return &SeriesTable{sites: make(map[string]*siteSeries)}
}

// Append adds r to the bucket for (r.Site, r.Month), creating it if needed.
func (t *SeriesTable) Append(r Reading) {
	ss, ok := t.sites[r.Site]
	if !ok {
		ss = &siteSeries{buckets: make(map[MonthKey]MonthlyBucket)}
		t.sites[r.Site] = ss
		t.order = append(t.order, r.Site)
	}
	if _, ok := ss.buckets[r.Month]; !ok {
		ss.months = append(ss.months, r.Month)
	}
	ss.buckets[r.Month] = append(ss.buckets[r.Month], r.Value)
}

// IDs returns site IDs in first-seen order.
func (t *SeriesTable) IDs() []string {
	return append([]string(nil), t.order...)
}

// Months returns the month keys seen for a site, in first-seen order.
func (t *SeriesTable) Months(id string) []MonthKey {
	ss, ok := t.sites[id]
	if !ok {
		return nil
	}
	return append([]MonthKey(nil), ss.months...)
}

func (t *SeriesTable) Bucket(id string, month MonthKey) (MonthlyBucket, bool) {
	ss, ok := t.sites[id]
	if !ok {
		return nil, false
	}
	b, ok := ss.buckets[month]
	return b, ok
}

// MonthlySummary is the single value a bucket is reduced to.
type MonthlySummary struct {
	Month MonthKey
	Value int64
}

// MonthlySeries is the ordered list of summaries for one site.
type MonthlySeries []MonthlySummary

// Get returns the summary for month, if present.
func (m MonthlySeries) Get(month MonthKey) (int64, bool) {
	for _, s := range m {
		if s.Month == month {
			return s.Value, true
		}
	}
	return 0, false
}

// SummaryTable maps site IDs to their monthly series, in first-seen order.
type SummaryTable struct {
	order  []string
	series map[string]MonthlySeries
}

func NewSummaryTable() *SummaryTable {
	return &SummaryTable{series: make(map[string]MonthlySeries)}
}

func (t *SummaryTable) Put(id string, s MonthlySeries) {
	if _, ok := t.series[id]; !ok {
		t.order = append(t.order, id)
	}
	t.series[id] = s
}

func (t *SummaryTable) Get(id string) (MonthlySeries, bool) {
	s, ok := t.series[id]
	return s, ok
}

func (t *SummaryTable) IDs() []string {
	return append([]string(nil), t.order...)
}

// SeriesRequest describes which raw time series the fetch collaborator
// should return.
type SeriesRequest struct {
	Sites         []string
	Start         time.Time
	End           time.Time
	ParameterCode string
}

// FetchSource tells whether a build's raw series came from the cache or a
// fresh request.
type FetchSource string

const (
	SourceCache   FetchSource = "cache"
	SourceNetwork FetchSource = "network"
)

// Snapshot is the result of one build. Only Collection is written to the
// output document.
type Snapshot struct {
	RunID        string            `json:"runId"`
	BuiltAt      time.Time         `json:"builtAt"` // always UTC
	Source       FetchSource       `json:"source"`
	Collection   FeatureCollection `json:"-"`
	SiteReport   ParseReport       `json:"siteReport"`
	SeriesReport ParseReport       `json:"seriesReport"`
}
