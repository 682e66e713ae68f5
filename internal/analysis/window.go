package analysis

import (
	"fmt"
	"strings"
	"time"
)

// DateRange selects the analysis window relative to a reference "now".
type DateRange string

const (
	RangeAll      DateRange = "all"
	RangeYTD      DateRange = "ytd"
	RangeQ1       DateRange = "q1"
	RangeQ2       DateRange = "q2"
	RangeQ3       DateRange = "q3"
	RangeQ4       DateRange = "q4"
	RangeLastYear DateRange = "last_year"
)

// ParseDateRange normalizes a selector string; empty defaults to all.
func ParseDateRange(s string) (DateRange, error) {
	r := DateRange(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeYTD, RangeQ1, RangeQ2, RangeQ3, RangeQ4, RangeLastYear:
		return r, nil
	}
	return "", fmt.Errorf("unknown date range %q", s)
}

// Window is a resolved [Start, End) span. Start is inclusive; End is
// exclusive unless IncludeEnd is set. Unbounded windows (all) contain
// every date.
type Window struct {
	Range      DateRange
	Bounded    bool
	Start      time.Time
	End        time.Time
	IncludeEnd bool
}

// ResolveWindow maps a selector onto a concrete span relative to now.
func ResolveWindow(r DateRange, now time.Time) (Window, error) {
	year := now.Year()
	loc := now.Location()
	switch r {
	case RangeAll:
		return Window{Range: r}, nil
	case RangeYTD:
		return Window{
			Range:      r,
			Bounded:    true,
			Start:      time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
			End:        now,
			IncludeEnd: true,
		}, nil
	case RangeLastYear:
		// [Jan 1 prev, Jan 1 curr): inclusive of the whole prior Dec 31 at
		// any time resolution.
		return Window{
			Range:   r,
			Bounded: true,
			Start:   time.Date(year-1, time.January, 1, 0, 0, 0, 0, loc),
			End:     time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		}, nil
	case RangeQ1, RangeQ2, RangeQ3, RangeQ4:
		q := int(r[1] - '0')
		start := time.Date(year, time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, loc)
		return Window{
			Range:   r,
			Bounded: true,
			Start:   start,
			End:     start.AddDate(0, 3, 0),
		}, nil
	}
	return Window{}, fmt.Errorf("unknown date range %q", r)
}

// Contains reports whether d falls inside the window. The windowing
// predicate uses Created Date so still-open opportunities stay visible even
// when they will close outside the span.
func (w Window) Contains(d time.Time) bool {
	if !w.Bounded {
		return true
	}
	if d.Before(w.Start) {
		return false
	}
	if d.Before(w.End) {
		return true
	}
	return w.IncludeEnd && d.Equal(w.End)
}

// FilterByWindow returns the records whose Created Date is in scope. The
// input slice is never mutated.
func FilterByWindow(records []Opportunity, w Window) []Opportunity {
	if !w.Bounded {
		out := make([]Opportunity, len(records))
		copy(out, records)
		return out
	}
	out := make([]Opportunity, 0, len(records))
	for _, r := range records {
		if w.Contains(r.CreatedDate) {
			out = append(out, r)
		}
	}
	return out
}
