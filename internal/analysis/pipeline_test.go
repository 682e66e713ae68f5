package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputePipelineHealthDistribution(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	h := ComputePipelineHealth(tenRecordScope(), now)

	require.Len(t, h.StageDistribution, 6) // literal stage labels, not classes
	require.Equal(t, 5, h.StageDistribution["Closed Won"].Count)
	require.Equal(t, 0.5, h.StageDistribution["Closed Won"].Percentage)
	require.Equal(t, 1, h.StageDistribution["Won"].Count)

	sum := 0.0
	for _, s := range h.StageDistribution {
		sum += s.Percentage
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestComputePipelineHealthLostReasons(t *testing.T) {
	records := tenRecordScope()
	records[6].LostReason = "Price"
	records[7].LostReason = ""

	h := ComputePipelineHealth(records, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	require.Equal(t, 1, h.LostReasons["Price"])
	require.Equal(t, 1, h.LostReasons[UnspecifiedLabel])
}

func TestComputePipelineHealthAging(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	records := []Opportunity{
		opp("Stale", "Stale-d", "Negotiation", "2024-03-01", "", "Renewal", 75000), // 106 days
		opp("Fresh", "Fresh-d", "Discovery", "2024-06-01", "", "Renewal", 25000),   // 14 days
		opp("Won", "Won-d", "Closed Won", "2023-01-01", "2023-02-01", "Renewal", 999999),
	}

	h := ComputePipelineHealth(records, now)
	require.Equal(t, 1, h.AgingCount)
	require.Equal(t, 75000.0, h.AgingTotalValue)
	require.Len(t, h.AgingDetails, 1)
	require.Equal(t, "Stale", h.AgingDetails[0].Account)
	require.Equal(t, 106, h.AgingDetails[0].DaysOpen)
	require.Equal(t, "Negotiation", h.AgingDetails[0].Stage)
}

func TestComputePipelineHealthAgingBoundary(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	records := []Opportunity{
		opp("At", "At-d", "Negotiation", "2024-05-16", "", "Renewal", 100),   // exactly 30 days
		opp("Past", "Past-d", "Negotiation", "2024-05-15", "", "Renewal", 200), // 31 days
	}

	h := ComputePipelineHealth(records, now)
	require.Equal(t, 1, h.AgingCount)
	require.Equal(t, "Past", h.AgingDetails[0].Account)
}

func TestComputePipelineHealthEmpty(t *testing.T) {
	h := ComputePipelineHealth(nil, time.Now())
	require.Empty(t, h.StageDistribution)
	require.Empty(t, h.LostReasons)
	require.Zero(t, h.AgingCount)
	require.Empty(t, h.AgingDetails)
}
