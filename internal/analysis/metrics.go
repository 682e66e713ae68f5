package analysis

import "math"

// CoreMetrics holds whole-portfolio KPIs over the filtered scope. All values
// are derived per request and never cached.
type CoreMetrics struct {
	TotalVolume     float64 `json:"total_volume"`
	AverageDealSize float64 `json:"average_deal_size"`
	WinRate         float64 `json:"win_rate"`
	AvgTimeToClose  float64 `json:"average_time_to_close"`
	Opportunities   int     `json:"number_of_opportunities"`
}

// ComputeCoreMetrics is a pure function over the filtered record set.
// Total Volume and Average Deal Size cover closed-won records; Win Rate uses
// the closed-only denominator and is 0 by convention when nothing has closed.
func ComputeCoreMetrics(records []Opportunity) CoreMetrics {
	var (
		wonCount, lostCount int
		wonVolume           float64
		cycleSum            float64
		cycleN              int
	)
	for i := range records {
		switch records[i].Class {
		case StageWon:
			wonCount++
			wonVolume += records[i].ACV
			if d, ok := records[i].CycleDays(); ok {
				cycleSum += d
				cycleN++
			}
		case StageLost:
			lostCount++
		}
	}

	m := CoreMetrics{
		TotalVolume:   round2(wonVolume),
		Opportunities: len(records),
	}
	if wonCount > 0 {
		m.AverageDealSize = round2(wonVolume / float64(wonCount))
	}
	if closed := wonCount + lostCount; closed > 0 {
		m.WinRate = round2(100 * float64(wonCount) / float64(closed))
	}
	if cycleN > 0 {
		m.AvgTimeToClose = round2(cycleSum / float64(cycleN))
	}
	return m
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
