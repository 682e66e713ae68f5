package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/salescope/salescope/config"
)

// Risk classification labels derived from Score via fixed thresholds.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// ScoreFactor records one scoring input: raw normalized value in [0,1], its
// weight, and the point contribution to the 0-100 score. Factors form the
// per-row audit trail and must be reproducible from the same inputs.
type ScoreFactor struct {
	Name         string  `json:"name"`
	Raw          float64 `json:"raw"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// OpenScore is the scored view of one still-open opportunity.
type OpenScore struct {
	Account  string
	Name     string
	Value    float64
	DaysOpen int
	Score    float64
	Risk     string
	Factors  []ScoreFactor
}

// RiskForScore maps a 0-100 score onto the three-level classification.
func RiskForScore(score float64) string {
	switch {
	case score >= config.RiskLowMinScore:
		return RiskLow
	case score >= config.RiskMediumMinScore:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ScoreOpenOpportunities computes a composite priority score for every
// open-stage record in the filtered scope. Output is ordered by descending
// score (stable on input order) so identical inputs reproduce identical
// tables.
func ScoreOpenOpportunities(records []Opportunity, now time.Time) []OpenScore {
	var open []Opportunity
	for i := range records {
		if records[i].Class == StageOpen {
			open = append(open, records[i])
		}
	}
	if len(open) == 0 {
		return nil
	}

	values := make([]float64, len(open))
	ages := make([]float64, len(open))
	for i := range open {
		values[i] = open[i].ACV
		ages[i] = float64(open[i].DaysOpen(now))
	}
	sortedValues := sortedCopy(values)
	sortedAges := sortedCopy(ages)

	practiceShare, maxShare := wonPracticeShares(records)

	out := make([]OpenScore, len(open))
	for i := range open {
		o := &open[i]

		valueRaw := fractionBelow(sortedValues, o.ACV)
		freshRaw := 1 - fractionBelow(sortedAges, ages[i])
		campaignRaw := campaignQuality(o.CampaignSource)
		practiceRaw := practiceAlignment(o, practiceShare, maxShare)

		factors := []ScoreFactor{
			{Name: "Deal Value", Raw: valueRaw, Weight: config.ScoreWeightDealValue},
			{Name: "Freshness", Raw: freshRaw, Weight: config.ScoreWeightFreshness},
			{Name: "Campaign Source", Raw: campaignRaw, Weight: config.ScoreWeightCampaign},
			{Name: "Practice Alignment", Raw: practiceRaw, Weight: config.ScoreWeightPractice},
		}
		score := 0.0
		for fi := range factors {
			factors[fi].Contribution = round2(100 * factors[fi].Raw * factors[fi].Weight)
			factors[fi].Raw = round3(factors[fi].Raw)
			score += factors[fi].Contribution
		}
		score = clampScore(round2(score))

		out[i] = OpenScore{
			Account:  o.Account,
			Name:     o.Name,
			Value:    o.ACV,
			DaysOpen: int(ages[i]),
			Score:    score,
			Risk:     RiskForScore(score),
			Factors:  factors,
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// fractionBelow returns the fraction of the sorted sample strictly below x.
// Monotone in x, so freshness (its inverse over age) is non-increasing in
// days-open.
func fractionBelow(sorted []float64, x float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	i := sort.SearchFloat64s(sorted, x)
	return float64(i) / float64(len(sorted))
}

func campaignQuality(source string) float64 {
	if strings.TrimSpace(source) == "" {
		return 0
	}
	if CampaignCategory(source) != "" {
		return config.CampaignQualityCategorized
	}
	return config.CampaignQualityOther
}

// wonPracticeShares computes each practice area's share of closed-won value
// across the scope, and the maximum share for normalization.
func wonPracticeShares(records []Opportunity) (map[string]float64, float64) {
	values := map[string]float64{}
	var total float64
	for i := range records {
		if records[i].Class != StageWon {
			continue
		}
		for _, area := range practiceAreas(&records[i]) {
			label := strings.TrimSpace(area)
			if label == "" {
				continue
			}
			values[label] += records[i].ACV
			total += records[i].ACV
		}
	}
	if total <= 0 {
		return nil, 0
	}
	shares := make(map[string]float64, len(values))
	maxShare := 0.0
	for label, v := range values {
		s := v / total
		shares[label] = s
		if s > maxShare {
			maxShare = s
		}
	}
	return shares, maxShare
}

// practiceAlignment scores how well the record's practice areas line up
// with where won value concentrates; the best-aligned area wins.
func practiceAlignment(o *Opportunity, shares map[string]float64, maxShare float64) float64 {
	if maxShare <= 0 || len(shares) == 0 {
		return 0
	}
	best := 0.0
	for _, area := range practiceAreas(o) {
		if s, ok := shares[strings.TrimSpace(area)]; ok && s/maxShare > best {
			best = s / maxShare
		}
	}
	return best
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
