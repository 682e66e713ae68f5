package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("")
	require.NoError(t, err)
	require.Equal(t, RangeAll, r)

	r, err = ParseDateRange(" YTD ")
	require.NoError(t, err)
	require.Equal(t, RangeYTD, r)

	_, err = ParseDateRange("h2")
	require.Error(t, err)
}

func TestResolveWindowYTD(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(RangeYTD, now)
	require.NoError(t, err)

	require.True(t, w.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.True(t, w.Contains(now))
	require.False(t, w.Contains(now.Add(time.Second)))
	require.False(t, w.Contains(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestResolveWindowQuarters(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	q1, err := ResolveWindow(RangeQ1, now)
	require.NoError(t, err)
	require.True(t, q1.Contains(day("2024-01-01")))
	require.True(t, q1.Contains(day("2024-03-31")))
	require.False(t, q1.Contains(day("2024-04-01")))

	q4, err := ResolveWindow(RangeQ4, now)
	require.NoError(t, err)
	require.True(t, q4.Contains(day("2024-10-01")))
	require.True(t, q4.Contains(day("2024-12-31")))
	require.False(t, q4.Contains(day("2025-01-01")))
}

func TestResolveWindowLastYear(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(RangeLastYear, now)
	require.NoError(t, err)

	require.True(t, w.Contains(day("2023-01-01")))
	require.True(t, w.Contains(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))
	require.False(t, w.Contains(day("2024-01-01")))
	require.False(t, w.Contains(day("2022-12-31")))
}

func TestFilterByWindowPartitions(t *testing.T) {
	records := []Opportunity{
		opp("A", "A1", "Closed Won", "2024-02-01", "2024-03-01", "Renewal", 100),
		opp("B", "B1", "Closed Lost", "2024-05-01", "2024-06-01", "Renewal", 100),
		opp("C", "C1", "Negotiation", "2023-11-15", "", "Renewal", 100),
	}
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	q1, err := ResolveWindow(RangeQ1, now)
	require.NoError(t, err)
	q2, err := ResolveWindow(RangeQ2, now)
	require.NoError(t, err)
	last, err := ResolveWindow(RangeLastYear, now)
	require.NoError(t, err)

	require.Len(t, FilterByWindow(records, q1), 1)
	require.Len(t, FilterByWindow(records, q2), 1)
	require.Len(t, FilterByWindow(records, last), 1)

	all, err := ResolveWindow(RangeAll, now)
	require.NoError(t, err)
	filtered := FilterByWindow(records, all)
	require.Len(t, filtered, 3)

	// Unbounded filtering copies rather than aliasing the input.
	filtered[0].Account = "mutated"
	require.Equal(t, "A", records[0].Account)
}
