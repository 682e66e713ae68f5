package analysis

import "strings"

// UnspecifiedLabel buckets rows with a blank key value for a dimension.
const UnspecifiedLabel = "Unspecified"

// SegmentStats aggregates one label's subset of the filtered scope.
// Rows holds indices into the filtered record set and is populated for the
// Type dimension only, enabling drill-down without duplicating records.
type SegmentStats struct {
	Label       string  `json:"label"`
	Count       int     `json:"count"`
	TotalVolume float64 `json:"total_volume"`
	AvgDealSize float64 `json:"avg_deal_size"`
	WinRate     float64 `json:"win_rate"`
	Rows        []int   `json:"-"`
}

// SegmentPerformance groups the filtered scope by each dimension
// independently. Groups appear in first-seen record order; sorting is a
// presentation concern.
type SegmentPerformance struct {
	Account      []SegmentStats
	Type         []SegmentStats
	PracticeArea []SegmentStats
}

// ComputeSegments builds all three segment breakdowns over the same
// filtered scope. Segment volume intentionally spans all stages to show
// full pipeline weight per segment; Win Rate keeps the closed-only
// denominator.
func ComputeSegments(records []Opportunity) SegmentPerformance {
	return SegmentPerformance{
		Account:      groupBy(records, false, func(o *Opportunity) []string { return []string{o.Account} }),
		Type:         groupBy(records, true, func(o *Opportunity) []string { return []string{o.Type} }),
		PracticeArea: groupBy(records, false, practiceAreas),
	}
}

// practiceAreas splits the semicolon-separated multi-value field; a record
// contributes to every area it names.
func practiceAreas(o *Opportunity) []string {
	if strings.TrimSpace(o.PracticeArea) == "" {
		return []string{""}
	}
	parts := strings.Split(o.PracticeArea, ";")
	out := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type segmentAcc struct {
	stats SegmentStats
	won   int
	lost  int
}

func groupBy(records []Opportunity, keepRows bool, keys func(*Opportunity) []string) []SegmentStats {
	byLabel := map[string]*segmentAcc{}
	var order []string

	for i := range records {
		for _, key := range keys(&records[i]) {
			label := strings.TrimSpace(key)
			if label == "" {
				label = UnspecifiedLabel
			}
			acc, ok := byLabel[label]
			if !ok {
				acc = &segmentAcc{stats: SegmentStats{Label: label}}
				byLabel[label] = acc
				order = append(order, label)
			}
			acc.stats.Count++
			acc.stats.TotalVolume += records[i].ACV
			if keepRows {
				acc.stats.Rows = append(acc.stats.Rows, i)
			}
			switch records[i].Class {
			case StageWon:
				acc.won++
			case StageLost:
				acc.lost++
			}
		}
	}

	out := make([]SegmentStats, 0, len(order))
	for _, label := range order {
		acc := byLabel[label]
		s := acc.stats
		s.TotalVolume = round2(s.TotalVolume)
		if s.Count > 0 {
			s.AvgDealSize = round2(s.TotalVolume / float64(s.Count))
		}
		if closed := acc.won + acc.lost; closed > 0 {
			s.WinRate = round2(100 * float64(acc.won) / float64(closed))
		}
		out = append(out, s)
	}
	return out
}
