package reservoir

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMalformedRow marks a data row that does not have the expected
	// columns or whose numeric fields do not parse.
	ErrMalformedRow = errors.New("malformed row")
	// ErrTransport is returned when the raw time series could not be fetched.
	ErrTransport = errors.New("transport failure")
	// ErrMetadata is returned when the site inventory could not be read.
	ErrMetadata = errors.New("site metadata unavailable")
	// ErrWrite is returned when the output document could not be persisted.
	ErrWrite = errors.New("write failure")
)

// SkipReason names why a row was dropped.
type SkipReason string

const (
	SkipShortRow      SkipReason = "short_row"
	SkipEmptyID       SkipReason = "empty_id"
	SkipBadCoordinate SkipReason = "bad_coordinate"
	SkipBadDate       SkipReason = "bad_date"
	SkipMissingValue  SkipReason = "missing_value"
	SkipBadValue      SkipReason = "bad_value"
)

// RowError describes a skipped row.
type RowError struct {
	Line   int
	Reason SkipReason
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func rowError(line int, reason SkipReason, format string, args ...any) *RowError {
	return &RowError{
		Line:   line,
		Reason: reason,
		Err:    fmt.Errorf("%w: "+format, append([]any{ErrMalformedRow}, args...)...),
	}
}

// ParseReport counts what a parser did with its input. Comment, header and
// empty lines are not rows.
type ParseReport struct {
	Rows     int                `json:"rows"`
	Accepted int                `json:"accepted"`
	Skipped  map[SkipReason]int `json:"skipped,omitempty"`
}

func (r *ParseReport) skip(reason SkipReason) {
	if r.Skipped == nil {
		r.Skipped = make(map[SkipReason]int)
	}
	r.Skipped[reason]++
}

// SkippedTotal returns the number of rows dropped for any reason.
func (r ParseReport) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// rdbScanner walks the data rows of a USGS RDB (tab-delimited) document one
// row at a time. Comment lines, empty lines and the two header rows are
// skipped. Lines have no length limit.
type rdbScanner struct {
	r       *bufio.Reader
	headers map[string]bool
	line    int
	fields  []string
	err     error
}

func newRDBScanner(raw []byte, headerTokens ...string) *rdbScanner {
	headers := make(map[string]bool, len(headerTokens))
	for _, h := range headerTokens {
		headers[h] = true
	}
	return &rdbScanner{r: bufio.NewReader(bytes.NewReader(raw)), headers: headers}
}

// Scan advances to the next data row.
func (s *rdbScanner) Scan() bool {
	s.fields = nil
	for s.err == nil {
		text, err := s.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
				return false
			}
			if text == "" {
				return false
			}
		}
		s.line++
		text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Split(text, "\t")
		if s.headers[fields[0]] {
			continue
		}
		s.fields = fields
		return true
	}
	return false
}

// Fields returns the tab-separated columns of the current row.
func (s *rdbScanner) Fields() []string {
	return s.fields
}

// Line returns the 1-based line number of the current row.
func (s *rdbScanner) Line() int {
	return s.line
}

func (s *rdbScanner) Err() error {
	return s.err
}
