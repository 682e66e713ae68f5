package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/salescope/salescope/config"
)

// Severity levels for generated insights. Assigned by fixed numeric
// thresholds on the underlying statistic, not learned.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Insight is one generated heuristic observation. Finding may contain
// multiple newline-delimited bullet lines.
type Insight struct {
	Category string `json:"category"`
	Finding  string `json:"finding"`
	Severity string `json:"severity"`
}

// OutcomeSummary holds win- or loss-specific statistics. When the matching
// subset is empty, HasData is false, Message explains, and all other fields
// are zero; callers must check HasData before reading totals.
type OutcomeSummary struct {
	HasData      bool
	Message      string
	Count        int
	TotalValue   float64
	AvgCycleDays float64
	Insights     []Insight
}

// outcomeScope carries everything an insight rule may inspect: the full
// filtered scope, the outcome subset, and both outcomes' cycle lengths.
type outcomeScope struct {
	all           []Opportunity
	subset        []Opportunity
	outcome       StageClass
	avgCycle      float64
	oppositeCycle float64
}

// insightRule is one (condition, severity, message) entry. A rule returning
// ok=false emits nothing. Rules run in table order so insight lists are
// deterministic.
type insightRule struct {
	category string
	build    func(s *outcomeScope) (finding, severity string, ok bool)
}

var winRules = []insightRule{
	{category: "Firm Size Distribution", build: firmSizeRule},
	{category: "Practice Area Success", build: practiceSuccessRule},
	{category: "Type Performance", build: typePerformanceRule},
	{category: "Campaign Performance", build: campaignPerformanceRule},
	{category: "Sales Cycle", build: salesCycleRule},
	{category: "Concentration Risk", build: concentrationRule},
}

var lossRules = []insightRule{
	{category: "Loss Reasons", build: lossReasonsRule},
	{category: "Dominant Loss Reason", build: dominantReasonRule},
	{category: "Type Analysis", build: typeLossRule},
	{category: "Firm Size Distribution", build: firmSizeRule},
	{category: "Campaign Analysis", build: campaignLossRule},
	{category: "Sales Cycle", build: salesCycleRule},
	{category: "Concentration Risk", build: concentrationRule},
}

// AnalyzeWins summarizes the closed-won subset of the filtered scope.
func AnalyzeWins(records []Opportunity) OutcomeSummary {
	return analyzeOutcome(records, StageWon, "No won opportunities to analyze", winRules)
}

// AnalyzeLosses summarizes the closed-lost subset of the filtered scope.
func AnalyzeLosses(records []Opportunity) OutcomeSummary {
	return analyzeOutcome(records, StageLost, "No lost opportunities to analyze", lossRules)
}

func analyzeOutcome(records []Opportunity, outcome StageClass, emptyMsg string, rules []insightRule) OutcomeSummary {
	opposite := StageLost
	if outcome == StageLost {
		opposite = StageWon
	}
	var subset, other []Opportunity
	for i := range records {
		switch records[i].Class {
		case outcome:
			subset = append(subset, records[i])
		case opposite:
			other = append(other, records[i])
		}
	}
	if len(subset) == 0 {
		return OutcomeSummary{HasData: false, Message: emptyMsg}
	}

	var total float64
	for i := range subset {
		total += subset[i].ACV
	}
	scope := &outcomeScope{
		all:           records,
		subset:        subset,
		outcome:       outcome,
		avgCycle:      avgCycleDays(subset),
		oppositeCycle: avgCycleDays(other),
	}

	out := OutcomeSummary{
		HasData:      true,
		Count:        len(subset),
		TotalValue:   round2(total),
		AvgCycleDays: round2(scope.avgCycle),
	}
	for _, rule := range rules {
		if finding, severity, ok := rule.build(scope); ok {
			out.Insights = append(out.Insights, Insight{Category: rule.category, Finding: finding, Severity: severity})
		}
	}
	return out
}

func avgCycleDays(subset []Opportunity) float64 {
	var sum float64
	var n int
	for i := range subset {
		if d, ok := subset[i].CycleDays(); ok {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// statLine carries one bullet plus its sort keys: primary statistic first,
// value second, label as the deterministic tiebreak.
type statLine struct {
	label   string
	primary float64
	value   float64
	text    string
}

func sortStatLines(lines []statLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].primary != lines[j].primary {
			return lines[i].primary > lines[j].primary
		}
		if lines[i].value != lines[j].value {
			return lines[i].value > lines[j].value
		}
		return lines[i].label < lines[j].label
	})
}

func joinLines(lines []statLine, cap int) string {
	if cap > 0 && len(lines) > cap {
		lines = lines[:cap]
	}
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}
	return strings.Join(texts, "\n")
}

func outcomeVerb(outcome StageClass) string {
	if outcome == StageWon {
		return "wins"
	}
	return "losses"
}

// --- Rules ---

// lossReasonsRule renders the closed-lost reason histogram as bullets with
// counts and value; top reasons only.
func lossReasonsRule(s *outcomeScope) (string, string, bool) {
	counts := map[string]int{}
	values := map[string]float64{}
	var order []string
	for i := range s.subset {
		reason := strings.TrimSpace(s.subset[i].LostReason)
		if reason == "" {
			reason = UnspecifiedLabel
		}
		if _, ok := counts[reason]; !ok {
			order = append(order, reason)
		}
		counts[reason]++
		values[reason] += s.subset[i].ACV
	}
	lines := make([]statLine, 0, len(order))
	total := len(s.subset)
	for _, reason := range order {
		rate := 100 * float64(counts[reason]) / float64(total)
		lines = append(lines, statLine{
			label:   reason,
			primary: float64(counts[reason]),
			value:   values[reason],
			text:    fmt.Sprintf("• %s (%.1f%%): %d losses (%s total value)", reason, rate, counts[reason], formatCurrency(values[reason])),
		})
	}
	sortStatLines(lines)
	return joinLines(lines, config.TopLossReasons) + "\nAddress the leading reasons with targeted enablement before next quarter.", SeverityHigh, true
}

// dominantReasonRule fires when a single loss reason holds a majority of
// losses.
func dominantReasonRule(s *outcomeScope) (string, string, bool) {
	counts := map[string]int{}
	for i := range s.subset {
		reason := strings.TrimSpace(s.subset[i].LostReason)
		if reason == "" {
			reason = UnspecifiedLabel
		}
		counts[reason]++
	}
	best, bestN := "", 0
	for reason, n := range counts {
		if n > bestN || (n == bestN && reason < best) {
			best, bestN = reason, n
		}
	}
	share := float64(bestN) / float64(len(s.subset))
	if share <= config.DominantReasonShare {
		return "", "", false
	}
	finding := fmt.Sprintf("• %q accounts for %.1f%% of all losses (%d of %d)\n• Recommendation: run a focused root-cause review on this reason", best, 100*share, bestN, len(s.subset))
	return finding, SeverityHigh, true
}

// salesCycleRule compares this outcome's average cycle length against the
// opposite outcome's; fires at fixed ratio thresholds.
func salesCycleRule(s *outcomeScope) (string, string, bool) {
	if s.avgCycle <= 0 || s.oppositeCycle <= 0 {
		return "", "", false
	}
	ratio := s.avgCycle / s.oppositeCycle
	if ratio < config.CycleRatioMedium {
		return "", "", false
	}
	severity := SeverityMedium
	if ratio >= config.CycleRatioHigh {
		severity = SeverityHigh
	}
	finding := fmt.Sprintf("• Average cycle for %s is %.0f days vs %.0f days for the opposite outcome (%.1fx)\n• Recommendation: review stalled deals for early disqualification signals", outcomeVerb(s.outcome), s.avgCycle, s.oppositeCycle, ratio)
	return finding, severity, true
}

// concentrationRule flags a single Practice Area or Type holding a
// disproportionate share of the outcome's value.
func concentrationRule(s *outcomeScope) (string, string, bool) {
	var total float64
	for i := range s.subset {
		total += s.subset[i].ACV
	}
	if total <= 0 {
		return "", "", false
	}

	check := func(dim string, keys func(*Opportunity) []string) (statLine, bool) {
		values := map[string]float64{}
		for i := range s.subset {
			for _, k := range keys(&s.subset[i]) {
				label := strings.TrimSpace(k)
				if label == "" {
					label = UnspecifiedLabel
				}
				values[label] += s.subset[i].ACV
			}
		}
		best, bestV := "", 0.0
		for label, v := range values {
			if v > bestV || (v == bestV && label < best) {
				best, bestV = label, v
			}
		}
		share := bestV / total
		if share <= config.ConcentrationShareMedium {
			return statLine{}, false
		}
		return statLine{
			label:   best,
			primary: share,
			value:   bestV,
			text:    fmt.Sprintf("• %s %q holds %.1f%% of %s value (%s)", dim, best, 100*share, outcomeVerb(s.outcome), formatCurrency(bestV)),
		}, true
	}

	var lines []statLine
	maxShare := 0.0
	if l, ok := check("Practice Area", practiceAreas); ok {
		lines = append(lines, l)
		if l.primary > maxShare {
			maxShare = l.primary
		}
	}
	if l, ok := check("Type", func(o *Opportunity) []string { return []string{o.Type} }); ok {
		lines = append(lines, l)
		if l.primary > maxShare {
			maxShare = l.primary
		}
	}
	if len(lines) == 0 {
		return "", "", false
	}
	severity := SeverityMedium
	if maxShare > config.ConcentrationShareHigh {
		severity = SeverityHigh
	}
	sortStatLines(lines)
	return joinLines(lines, 0) + "\n• Recommendation: diversify pipeline sourcing beyond the concentrated segment", severity, true
}

// firmSizeRule buckets the subset by lawyer count. Records without a lawyer
// count are excluded, matching the bin edges.
func firmSizeRule(s *outcomeScope) (string, string, bool) {
	type bucket struct {
		label string
		lo    int
		hi    int // inclusive; 0 means unbounded
	}
	buckets := []bucket{
		{"Small (0-50)", 1, 50},
		{"Medium (51-200)", 51, 200},
		{"Large (201-500)", 201, 500},
		{"Enterprise (500+)", 501, 0},
	}
	counts := make([]int, len(buckets))
	values := make([]float64, len(buckets))
	any := false
	for i := range s.subset {
		n := s.subset[i].Lawyers
		if n <= 0 {
			continue
		}
		for bi, b := range buckets {
			if n >= b.lo && (b.hi == 0 || n <= b.hi) {
				counts[bi]++
				values[bi] += s.subset[i].ACV
				any = true
				break
			}
		}
	}
	if !any {
		return "", "", false
	}
	verb := outcomeVerb(s.outcome)
	var texts []string
	for bi, b := range buckets {
		if counts[bi] == 0 {
			continue
		}
		texts = append(texts, fmt.Sprintf("• %s: %d %s (%s total value)", b.label, counts[bi], verb, formatCurrency(values[bi])))
	}
	return strings.Join(texts, "\n"), SeverityMedium, true
}

// typePerformanceRule reports win rate per Type across the full scope,
// gated on sample size.
func typePerformanceRule(s *outcomeScope) (string, string, bool) {
	lines := perTypeOutcomeLines(s.all, StageWon, "win rate", "won")
	if len(lines) == 0 {
		return "", "", false
	}
	sortStatLines(lines)
	return joinLines(lines, 0), SeverityMedium, true
}

// typeLossRule reports loss rate per Type; severity escalates when any type
// loses more than the high-loss threshold.
func typeLossRule(s *outcomeScope) (string, string, bool) {
	lines := perTypeOutcomeLines(s.all, StageLost, "loss rate", "lost")
	if len(lines) == 0 {
		return "", "", false
	}
	severity := SeverityMedium
	for _, l := range lines {
		if l.primary > config.HighLossRatePct {
			severity = SeverityHigh
			break
		}
	}
	sortStatLines(lines)
	return joinLines(lines, 0), severity, true
}

func perTypeOutcomeLines(all []Opportunity, outcome StageClass, rateName, verb string) []statLine {
	type acc struct {
		total   int
		matched int
		value   float64
	}
	byType := map[string]*acc{}
	var order []string
	for i := range all {
		label := strings.TrimSpace(all[i].Type)
		if label == "" {
			label = UnspecifiedLabel
		}
		a, ok := byType[label]
		if !ok {
			a = &acc{}
			byType[label] = a
			order = append(order, label)
		}
		a.total++
		if all[i].Class == outcome {
			a.matched++
			a.value += all[i].ACV
		}
	}
	var lines []statLine
	for _, label := range order {
		a := byType[label]
		if a.total < config.MinSegmentSample {
			continue
		}
		rate := 100 * float64(a.matched) / float64(a.total)
		lines = append(lines, statLine{
			label:   label,
			primary: rate,
			value:   a.value,
			text:    fmt.Sprintf("• %s: %.1f%% %s (%d/%d %s, %s)", label, rate, rateName, a.matched, a.total, verb, formatCurrency(a.value)),
		})
	}
	return lines
}

// practiceSuccessRule reports win rate per practice area across the full
// scope, top areas only, gated on sample size.
func practiceSuccessRule(s *outcomeScope) (string, string, bool) {
	type acc struct {
		total int
		won   int
		value float64
	}
	byArea := map[string]*acc{}
	var order []string
	for i := range s.all {
		for _, area := range practiceAreas(&s.all[i]) {
			label := strings.TrimSpace(area)
			if label == "" {
				continue
			}
			a, ok := byArea[label]
			if !ok {
				a = &acc{}
				byArea[label] = a
				order = append(order, label)
			}
			a.total++
			if s.all[i].Class == StageWon {
				a.won++
				a.value += s.all[i].ACV
			}
		}
	}
	var lines []statLine
	for _, label := range order {
		a := byArea[label]
		if a.total < config.MinSegmentSample {
			continue
		}
		rate := 100 * float64(a.won) / float64(a.total)
		lines = append(lines, statLine{
			label:   label,
			primary: rate,
			value:   a.value,
			text:    fmt.Sprintf("• %s: %.1f%% win rate (%d/%d won, %s)", label, rate, a.won, a.total, formatCurrency(a.value)),
		})
	}
	if len(lines) == 0 {
		return "", "", false
	}
	sortStatLines(lines)
	return joinLines(lines, config.TopPracticeAreas), SeverityMedium, true
}

// CampaignCategory maps a raw Primary Campaign Source onto a coarse bucket
// by keyword; empty string means uncategorized.
func CampaignCategory(source string) string {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "email") || strings.Contains(s, "newsletter"):
		return "Email Campaigns"
	case strings.Contains(s, "demo"):
		return "Product Demos"
	case strings.Contains(s, "webinar") || strings.Contains(s, "event"):
		return "Events & Webinars"
	case strings.Contains(s, "referral"):
		return "Referrals"
	case strings.Contains(s, "partner"):
		return "Partner Programs"
	}
	return ""
}

func campaignLines(subset []Opportunity, verb string) []statLine {
	type acc struct {
		count int
		value float64
	}
	byCat := map[string]*acc{}
	var order []string
	for i := range subset {
		cat := CampaignCategory(subset[i].CampaignSource)
		if cat == "" {
			continue
		}
		a, ok := byCat[cat]
		if !ok {
			a = &acc{}
			byCat[cat] = a
			order = append(order, cat)
		}
		a.count++
		a.value += subset[i].ACV
	}
	var lines []statLine
	for _, cat := range order {
		a := byCat[cat]
		if a.count < config.MinCampaignSample {
			continue
		}
		lines = append(lines, statLine{
			label:   cat,
			primary: float64(a.count),
			value:   a.value,
			text:    fmt.Sprintf("• %s: %d %s (%s total value)", cat, a.count, verb, formatCurrency(a.value)),
		})
	}
	return lines
}

func campaignPerformanceRule(s *outcomeScope) (string, string, bool) {
	lines := campaignLines(s.subset, "wins")
	if len(lines) == 0 {
		return "", "", false
	}
	sortStatLines(lines)
	return joinLines(lines, 0), SeverityMedium, true
}

func campaignLossRule(s *outcomeScope) (string, string, bool) {
	lines := campaignLines(s.subset, "losses")
	if len(lines) == 0 {
		return "", "", false
	}
	severity := SeverityMedium
	for _, l := range lines {
		if int(l.primary) >= config.HighCampaignLossCount {
			severity = SeverityHigh
			break
		}
	}
	sortStatLines(lines)
	return joinLines(lines, 0), severity, true
}
