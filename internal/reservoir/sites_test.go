package reservoir

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSites(t *testing.T) {
	sites, report, err := ParseSites([]byte(testInventory))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sites.Len() != 2 {
		t.Fatalf("expected 2 sites, got %d", sites.Len())
	}

	s, ok := sites.Get("01234567")
	if !ok {
		t.Fatalf("site 01234567 missing")
	}
	if s.Name != "Lake Test" || s.Latitude != 40.0 || s.Longitude != -120.5 {
		t.Errorf("unexpected site %+v", s)
	}
	if report.Rows != 2 || report.Accepted != 2 || report.SkippedTotal() != 0 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestParseSitesLastWriteWins(t *testing.T) {
	raw := "A1234567\tFirst\t1\t2\nB1234567\tOther\t3\t4\nA1234567\tSecond\t5\t6\n"
	sites, _, err := ParseSites([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := sites.IDs()
	if len(ids) != 2 || ids[0] != "A1234567" || ids[1] != "B1234567" {
		t.Fatalf("unexpected order %v", ids)
	}
	s, _ := sites.Get("A1234567")
	if s.Name != "Second" || s.Latitude != 5 || s.Longitude != 6 {
		t.Errorf("expected last row to win, got %+v", s)
	}
}

func TestParseSitesSkipsMalformedRows(t *testing.T) {
	raw := "# header comment\n" +
		"\n" +
		"01234567\tShort\t40.0\n" +
		"01234568\tBad lat\tnorth\t-120\n" +
		"01234569\tBad lon\t40\twest\n" +
		"\tNo id\t1\t2\n" +
		"01234570\tGood\t41.5\t-119.25\r\n"

	sites, report, err := ParseSites([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sites.Len() != 1 {
		t.Fatalf("expected 1 site, got %d: %v", sites.Len(), sites.IDs())
	}
	if s, _ := sites.Get("01234570"); s.Longitude != -119.25 {
		t.Errorf("expected CRLF row to parse, got %+v", s)
	}

	if report.Rows != 5 || report.Accepted != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Skipped[SkipShortRow] != 1 || report.Skipped[SkipBadCoordinate] != 2 || report.Skipped[SkipEmptyID] != 1 {
		t.Errorf("unexpected skip counts %v", report.Skipped)
	}
}

func TestParseSiteRowError(t *testing.T) {
	_, rerr := parseSiteRow(7, []string{"01234567", "x", "1"})
	if rerr == nil {
		t.Fatalf("expected row error")
	}
	if !errors.Is(rerr, ErrMalformedRow) {
		t.Errorf("expected ErrMalformedRow, got %v", rerr)
	}
	if rerr.Line != 7 {
		t.Errorf("expected line 7, got %d", rerr.Line)
	}
}

func TestParseSitesRejectsNonFiniteCoordinates(t *testing.T) {
	raw := "01234567\tBad\tNaN\t-120.5\n" +
		"01234568\tWorse\t40\t+Inf\n" +
		"01234569\tWorst\t-Infinity\t-120\n" +
		"07654321\tGood\t38\t-121\n"

	sites, report, err := ParseSites([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := sites.IDs(); len(ids) != 1 || ids[0] != "07654321" {
		t.Fatalf("expected only the finite site, got %v", ids)
	}
	if report.Accepted != 1 || report.Skipped[SkipBadCoordinate] != 3 {
		t.Errorf("unexpected report %+v", report)
	}

	if _, err := json.Marshal(Assemble(sites, NewSummaryTable())); err != nil {
		t.Errorf("collection should encode: %v", err)
	}
}
