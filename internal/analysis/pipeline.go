package analysis

import (
	"strings"
	"time"

	"github.com/salescope/salescope/config"
)

// StageStat holds the count and share of one literal Stage value.
// Percentage is a fraction of the in-scope total; shares sum to 1 across all
// observed stages.
type StageStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// AgingDetail is one flagged open opportunity exceeding the staleness
// threshold.
type AgingDetail struct {
	Account  string
	Name     string
	Value    float64
	Created  time.Time
	Stage    string
	DaysOpen int
}

// PipelineHealth diagnoses the filtered scope: stage mix, loss reasons, and
// stale open pipeline.
type PipelineHealth struct {
	StageDistribution map[string]StageStat
	LostReasons       map[string]int
	AgingCount        int
	AgingTotalValue   float64
	AgingDetails      []AgingDetail
}

// ComputePipelineHealth analyzes stage distribution over literal Stage
// values, the closed-lost reason histogram, and open records older than the
// aging threshold relative to now.
func ComputePipelineHealth(records []Opportunity, now time.Time) PipelineHealth {
	h := PipelineHealth{
		StageDistribution: map[string]StageStat{},
		LostReasons:       map[string]int{},
	}
	total := len(records)
	for i := range records {
		r := &records[i]
		s := h.StageDistribution[r.Stage]
		s.Count++
		h.StageDistribution[r.Stage] = s

		if r.Class == StageLost {
			reason := strings.TrimSpace(r.LostReason)
			if reason == "" {
				reason = UnspecifiedLabel
			}
			h.LostReasons[reason]++
		}

		if r.Class == StageOpen {
			if days := r.DaysOpen(now); days > config.AgingThresholdDays {
				h.AgingCount++
				h.AgingTotalValue += r.ACV
				h.AgingDetails = append(h.AgingDetails, AgingDetail{
					Account:  r.Account,
					Name:     r.Name,
					Value:    r.ACV,
					Created:  r.CreatedDate,
					Stage:    r.Stage,
					DaysOpen: days,
				})
			}
		}
	}

	if total > 0 {
		for stage, s := range h.StageDistribution {
			s.Percentage = float64(s.Count) / float64(total)
			h.StageDistribution[stage] = s
		}
	}
	h.AgingTotalValue = round2(h.AgingTotalValue)
	return h
}
