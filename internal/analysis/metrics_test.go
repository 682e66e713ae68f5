package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// tenRecordScope builds 6 won (100k each), 2 lost, 2 open.
func tenRecordScope() []Opportunity {
	records := []Opportunity{
		opp("W1", "W1-d", "Closed Won", "2024-01-01", "2024-02-10", "Renewal", 100000),
		opp("W2", "W2-d", "Closed Won", "2024-01-05", "2024-02-14", "Renewal", 100000),
		opp("W3", "W3-d", "Closed Won", "2024-01-10", "2024-02-19", "New Business", 100000),
		opp("W4", "W4-d", "Closed Won", "2024-01-15", "2024-02-24", "New Business", 100000),
		opp("W5", "W5-d", "Closed Won", "2024-01-20", "2024-02-29", "Renewal", 100000),
		opp("W6", "W6-d", "Won", "2024-01-25", "2024-03-05", "Renewal", 100000),
		opp("L1", "L1-d", "Closed Lost", "2024-02-01", "2024-03-01", "New Business", 60000),
		opp("L2", "L2-d", "Lost", "2024-02-05", "2024-03-05", "New Business", 40000),
		opp("O1", "O1-d", "Negotiation", "2024-03-01", "", "Renewal", 75000),
		opp("O2", "O2-d", "Discovery", "2024-03-10", "", "New Business", 25000),
	}
	return records
}

func TestComputeCoreMetrics(t *testing.T) {
	m := ComputeCoreMetrics(tenRecordScope())

	require.Equal(t, 600000.0, m.TotalVolume)
	require.Equal(t, 100000.0, m.AverageDealSize)
	require.Equal(t, 75.0, m.WinRate)
	require.Equal(t, 10, m.Opportunities)
	require.Equal(t, 40.0, m.AvgTimeToClose)
}

func TestComputeCoreMetricsEmpty(t *testing.T) {
	m := ComputeCoreMetrics(nil)
	require.Equal(t, 0.0, m.TotalVolume)
	require.Equal(t, 0.0, m.AverageDealSize)
	require.Equal(t, 0.0, m.WinRate)
	require.Equal(t, 0.0, m.AvgTimeToClose)
	require.Equal(t, 0, m.Opportunities)
}

func TestComputeCoreMetricsWonOnlyVolume(t *testing.T) {
	records := []Opportunity{
		opp("W", "W-d", "Closed Won", "2024-01-01", "2024-02-01", "Renewal", 50000),
		opp("L", "L-d", "Closed Lost", "2024-01-01", "2024-02-01", "Renewal", 999999),
		opp("O", "O-d", "Negotiation", "2024-01-01", "", "Renewal", 888888),
	}
	m := ComputeCoreMetrics(records)
	require.Equal(t, 50000.0, m.TotalVolume)
	require.Equal(t, 50000.0, m.AverageDealSize)
	require.Equal(t, 50.0, m.WinRate)
}
