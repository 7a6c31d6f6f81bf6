package reservoir

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Header tokens found in column 0 of an NWIS instantaneous-values document.
const (
	seriesColumnsHeader = "agency_cd"
	seriesFormatHeader  = "5s"
)

// Column positions in an instantaneous-values row:
// agency_cd, site_no, datetime, tz_cd, <value>, <qualifier>.
const (
	colSite     = 1
	colDatetime = 2
	colValue    = 4
)

// ParseSeries reads an NWIS instantaneous-values document in RDB format and
// buckets every reading by site and month. The datetime column must start with
// a YYYY-MM-DD date. Rows with an empty or non-numeric value are recording
// gaps and are skipped, as are rows that are too short or carry an invalid
// date. The returned error is only set when the input itself could not be
// read.
func ParseSeries(raw []byte) (*SeriesTable, ParseReport, error) {
	table := NewSeriesTable()
	var report ParseReport

	sc := newRDBScanner(raw, seriesColumnsHeader, seriesFormatHeader)
	for sc.Scan() {
		report.Rows++
		r, rerr := parseReadingRow(sc.Line(), sc.Fields())
		if rerr != nil {
			report.skip(rerr.Reason)
			continue
		}
		table.Append(r)
		report.Accepted++
	}
	if err := sc.Err(); err != nil {
		return table, report, err
	}
	return table, report, nil
}

func parseReadingRow(line int, fields []string) (Reading, *RowError) {
	if len(fields) <= colValue {
		return Reading{}, rowError(line, SkipShortRow, "want at least %d columns, got %d", colValue+1, len(fields))
	}
	id := strings.TrimSpace(fields[colSite])
	if id == "" {
		return Reading{}, rowError(line, SkipEmptyID, "empty site id")
	}
	month, err := monthOf(fields[colDatetime])
	if err != nil {
		return Reading{}, rowError(line, SkipBadDate, "datetime %q: %v", fields[colDatetime], err)
	}
	raw := strings.TrimSpace(fields[colValue])
	if raw == "" {
		return Reading{}, rowError(line, SkipMissingValue, "no value for site %s", id)
	}
	v, ok := parseValue(raw)
	if !ok {
		return Reading{}, rowError(line, SkipBadValue, "value %q for site %s", raw, id)
	}
	return Reading{Site: id, Month: month, Value: v}, nil
}

// monthOf derives the month key from a "YYYY-MM-DD HH:MM" timestamp.
func monthOf(datetime string) (MonthKey, error) {
	date, _, _ := strings.Cut(strings.TrimSpace(datetime), " ")
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return MonthKey(t.Format(monthKeyLayout)), nil
}

// parseValue parses an integer reading. Decimal readings are truncated toward
// zero.
func parseValue(s string) (int64, bool) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
