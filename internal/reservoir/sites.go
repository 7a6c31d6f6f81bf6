package reservoir

import (
	"log"
	"math"
	"strconv"
	"strings"
)

// Header tokens found in column 0 of an NWIS site inventory.
const (
	siteColumnsHeader = "site_no"
	siteFormatHeader  = "15s"
)

// ParseSites reads a site inventory in RDB format. Each data row supplies
// site_no, station name, latitude and longitude in its first four columns.
// A later row for the same site replaces the earlier one. Rows that cannot be
// parsed are skipped with a warning and counted in the report; the returned
// error is only set when the input itself could not be read.
func ParseSites(raw []byte) (*SiteTable, ParseReport, error) {
	table := NewSiteTable()
	var report ParseReport

	sc := newRDBScanner(raw, siteColumnsHeader, siteFormatHeader)
	for sc.Scan() {
		report.Rows++
		site, rerr := parseSiteRow(sc.Line(), sc.Fields())
		if rerr != nil {
			log.Printf("WARN: skipping inventory row: %v", rerr)
			report.skip(rerr.Reason)
			continue
		}
		table.Put(site)
		report.Accepted++
	}
	if err := sc.Err(); err != nil {
		return table, report, err
	}
	return table, report, nil
}

func parseSiteRow(line int, fields []string) (Site, *RowError) {
	if len(fields) < 4 {
		return Site{}, rowError(line, SkipShortRow, "want at least 4 columns, got %d", len(fields))
	}
	id := strings.TrimSpace(fields[0])
	if id == "" {
		return Site{}, rowError(line, SkipEmptyID, "empty site id")
	}
	lat, ok := parseCoordinate(fields[2])
	if !ok {
		return Site{}, rowError(line, SkipBadCoordinate, "latitude %q for site %s", fields[2], id)
	}
	lon, ok := parseCoordinate(fields[3])
	if !ok {
		return Site{}, rowError(line, SkipBadCoordinate, "longitude %q for site %s", fields[3], id)
	}
	return Site{
		ID:        id,
		Name:      fields[1],
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// parseCoordinate accepts finite decimal degrees only. ParseFloat also
// understands "NaN" and "Inf", which cannot be encoded as JSON.
func parseCoordinate(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
