package analysis

import (
	"fmt"
	"strings"

	"github.com/salescope/salescope/internal/viz"
)

// Document is the full analysis payload. Field order fixes the JSON key
// order, and all display formatting (currency, percent, day counts) happens
// here so the compute layer stays numeric.
type Document struct {
	Advanced       AdvancedAnalysis `json:"Advanced Analysis"`
	Visualizations Visualizations   `json:"Visualizations"`
}

// AdvancedAnalysis groups every analysis section under its display heading.
type AdvancedAnalysis struct {
	Scope       ScopeInfo        `json:"Scope"`
	DataQuality DataQuality      `json:"Data Quality"`
	CoreMetrics CoreMetricsView  `json:"Core Metrics"`
	Segments    SegmentsView     `json:"Segment Performance"`
	Pipeline    PipelineView     `json:"Pipeline Health"`
	Wins        OutcomeView      `json:"Win Analysis"`
	Losses      OutcomeView      `json:"Loss Analysis"`
	Scores      ScoreTableView   `json:"Score Open Opportunities"`
	Trends      []TrendPointView `json:"Trends"`
}

// ScopeInfo echoes the request back so the payload is self-describing.
type ScopeInfo struct {
	DateRange string `json:"date_range"`
	Interval  string `json:"interval"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Records   int    `json:"records"`
}

// DataQuality reports what the normalizer accepted and excluded.
type DataQuality struct {
	RowsSeen     int        `json:"rows_seen"`
	RowsAnalyzed int        `json:"rows_analyzed"`
	RowsSkipped  int        `json:"rows_skipped"`
	Issues       []RowIssue `json:"issues,omitempty"`
}

// CoreMetricsView is the formatted portfolio summary.
type CoreMetricsView struct {
	TotalVolume     string `json:"Total Volume"`
	AverageDealSize string `json:"Average Deal Size"`
	WinRate         string `json:"Win Rate"`
	AvgTimeToClose  string `json:"Average Time to Close"`
	Opportunities   int    `json:"Number of Opportunities"`
}

// SegmentRowView is one formatted segment line.
type SegmentRowView struct {
	Label         string               `json:"label"`
	Opportunities int                  `json:"count"`
	TotalVolume   string               `json:"Total Volume"`
	AvgDealSize   string               `json:"Average Deal Size"`
	WinRate       string               `json:"Win Rate"`
	Drilldown     []OpportunityRowView `json:"opportunities,omitempty"`
}

// OpportunityRowView is one record inside a Type segment drill-down.
type OpportunityRowView struct {
	Account string `json:"Account Name"`
	Name    string `json:"Opportunity Name"`
	Stage   string `json:"Stage"`
	Value   string `json:"Value"`
	Created string `json:"Created Date"`
}

// SegmentsView holds the three dimension breakdowns.
type SegmentsView struct {
	Account      []SegmentRowView `json:"Account Performance"`
	Type         []SegmentRowView `json:"Type Performance"`
	PracticeArea []SegmentRowView `json:"Practice Area Performance"`
}

// StageStatView is one formatted stage-distribution entry.
type StageStatView struct {
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// AgingDetailView is one formatted stale-pipeline row.
type AgingDetailView struct {
	Account  string `json:"Account Name"`
	Name     string `json:"Opportunity Name"`
	Value    string `json:"Value"`
	Created  string `json:"Created Date"`
	Stage    string `json:"Stage"`
	DaysOpen int    `json:"Days Open"`
}

// AgingView summarizes open records past the staleness threshold.
type AgingView struct {
	Count      int               `json:"Count"`
	TotalValue string            `json:"Total Value"`
	Details    []AgingDetailView `json:"Details"`
}

// PipelineView is the formatted pipeline diagnosis.
type PipelineView struct {
	StageDistribution map[string]StageStatView `json:"Stage Distribution"`
	LostReasons       map[string]int           `json:"Lost Reasons"`
	Aging             AgingView                `json:"Aging Opportunities"`
}

// OutcomeView is the formatted win or loss summary.
type OutcomeView struct {
	HasData      bool      `json:"has_data"`
	Message      string    `json:"message,omitempty"`
	Count        int       `json:"count,omitempty"`
	TotalValue   string    `json:"Total Value,omitempty"`
	AvgCycleDays string    `json:"Average Sales Cycle,omitempty"`
	Insights     []Insight `json:"insights,omitempty"`
}

// ScoreRowView is one formatted scored open opportunity.
type ScoreRowView struct {
	Account     string `json:"Account Name"`
	Name        string `json:"Opportunity Name"`
	Value       string `json:"Value"`
	DaysOpen    int    `json:"Days Open"`
	Score       string `json:"Score"`
	Risk        string `json:"Risk"`
	KeyInsights string `json:"Key Insights"`
}

// ScoreTableView is the ready-to-render priority table.
type ScoreTableView struct {
	Headers []string       `json:"headers"`
	Rows    []ScoreRowView `json:"rows"`
}

// TrendPointView is one formatted trend bucket.
type TrendPointView struct {
	Label        string `json:"label"`
	WinRate      string `json:"Win Rate"`
	ClosedVolume string `json:"Closed Volume"`
	Deals        int    `json:"Deals"`
}

// Visualizations carries the three chart payloads keyed by display name.
type Visualizations struct {
	WinRateByType viz.Chart `json:"Win Rates by Type"`
	WinRateTrend  viz.Chart `json:"Win Rate Trend"`
	VolumeTrend   viz.Chart `json:"Volume Trend"`
}

const displayDate = "2006-01-02"

// AssembleDocument binds the computed sections into the display document.
// records is the filtered scope the sections were computed over.
func AssembleDocument(
	scope ScopeInfo,
	quality DataQuality,
	records []Opportunity,
	metrics CoreMetrics,
	segments SegmentPerformance,
	pipeline PipelineHealth,
	wins, losses OutcomeSummary,
	scores []OpenScore,
	trends []TrendPoint,
) Document {
	return Document{
		Advanced: AdvancedAnalysis{
			Scope:       scope,
			DataQuality: quality,
			CoreMetrics: formatCoreMetrics(metrics),
			Segments: SegmentsView{
				Account:      formatSegments(segments.Account, nil),
				Type:         formatSegments(segments.Type, records),
				PracticeArea: formatSegments(segments.PracticeArea, nil),
			},
			Pipeline: formatPipeline(pipeline),
			Wins:     formatOutcome(wins),
			Losses:   formatOutcome(losses),
			Scores:   formatScores(scores),
			Trends:   formatTrends(trends),
		},
		Visualizations: buildVisualizations(segments.Type, trends),
	}
}

func formatCoreMetrics(m CoreMetrics) CoreMetricsView {
	return CoreMetricsView{
		TotalVolume:     formatCurrency(m.TotalVolume),
		AverageDealSize: formatCurrency(m.AverageDealSize),
		WinRate:         formatPercent(m.WinRate),
		AvgTimeToClose:  fmt.Sprintf("%.1f days", m.AvgTimeToClose),
		Opportunities:   m.Opportunities,
	}
}

// formatSegments renders one dimension; records is non-nil only for the
// Type dimension, where each segment materializes its member rows.
func formatSegments(stats []SegmentStats, records []Opportunity) []SegmentRowView {
	out := make([]SegmentRowView, 0, len(stats))
	for _, s := range stats {
		row := SegmentRowView{
			Label:         s.Label,
			Opportunities: s.Count,
			TotalVolume:   formatCurrency(s.TotalVolume),
			AvgDealSize:   formatCurrency(s.AvgDealSize),
			WinRate:       formatPercent(s.WinRate),
		}
		if records != nil {
			row.Drilldown = make([]OpportunityRowView, 0, len(s.Rows))
			for _, idx := range s.Rows {
				o := &records[idx]
				row.Drilldown = append(row.Drilldown, OpportunityRowView{
					Account: o.Account,
					Name:    o.Name,
					Stage:   o.Stage,
					Value:   formatCurrency(o.ACV),
					Created: o.CreatedDate.Format(displayDate),
				})
			}
		}
		out = append(out, row)
	}
	return out
}

func formatPipeline(h PipelineHealth) PipelineView {
	stages := make(map[string]StageStatView, len(h.StageDistribution))
	for stage, st := range h.StageDistribution {
		stages[stage] = StageStatView{
			Count:      st.Count,
			Percentage: formatPercent(100 * st.Percentage),
		}
	}
	details := make([]AgingDetailView, 0, len(h.AgingDetails))
	for _, d := range h.AgingDetails {
		details = append(details, AgingDetailView{
			Account:  d.Account,
			Name:     d.Name,
			Value:    formatCurrency(d.Value),
			Created:  d.Created.Format(displayDate),
			Stage:    d.Stage,
			DaysOpen: d.DaysOpen,
		})
	}
	return PipelineView{
		StageDistribution: stages,
		LostReasons:       h.LostReasons,
		Aging: AgingView{
			Count:      h.AgingCount,
			TotalValue: formatCurrency(h.AgingTotalValue),
			Details:    details,
		},
	}
}

func formatOutcome(s OutcomeSummary) OutcomeView {
	if !s.HasData {
		return OutcomeView{HasData: false, Message: s.Message}
	}
	return OutcomeView{
		HasData:      true,
		Count:        s.Count,
		TotalValue:   formatCurrency(s.TotalValue),
		AvgCycleDays: fmt.Sprintf("%.1f days", s.AvgCycleDays),
		Insights:     s.Insights,
	}
}

var scoreTableHeaders = []string{
	"Account Name", "Opportunity Name", "Value", "Days Open", "Score", "Risk", "Key Insights",
}

func formatScores(scores []OpenScore) ScoreTableView {
	rows := make([]ScoreRowView, 0, len(scores))
	for i := range scores {
		s := &scores[i]
		rows = append(rows, ScoreRowView{
			Account:     s.Account,
			Name:        s.Name,
			Value:       formatCurrency(s.Value),
			DaysOpen:    s.DaysOpen,
			Score:       fmt.Sprintf("%.1f%%", s.Score),
			Risk:        s.Risk,
			KeyInsights: scoreInsightText(s),
		})
	}
	return ScoreTableView{Headers: scoreTableHeaders, Rows: rows}
}

// scoreInsightText renders the per-factor audit trail as newline-delimited
// lines ending with the resolved score and risk class.
func scoreInsightText(s *OpenScore) string {
	var b strings.Builder
	for _, f := range s.Factors {
		fmt.Fprintf(&b, "%s: %.2f x %.0f%% = %.1f\n", f.Name, f.Raw, f.Weight*100, f.Contribution)
	}
	fmt.Fprintf(&b, "Resolved score: %.1f (%s risk)", s.Score, s.Risk)
	return b.String()
}

func formatTrends(points []TrendPoint) []TrendPointView {
	out := make([]TrendPointView, 0, len(points))
	for _, p := range points {
		out = append(out, TrendPointView{
			Label:        p.Label,
			WinRate:      formatPercent(p.WinRate),
			ClosedVolume: formatCurrency(p.ClosedVolume),
			Deals:        p.Deals,
		})
	}
	return out
}

func buildVisualizations(typeStats []SegmentStats, trends []TrendPoint) Visualizations {
	typeLabels := make([]string, 0, len(typeStats))
	typeRates := make([]float64, 0, len(typeStats))
	for _, s := range typeStats {
		typeLabels = append(typeLabels, s.Label)
		typeRates = append(typeRates, s.WinRate)
	}

	labels := make([]string, 0, len(trends))
	rates := make([]float64, 0, len(trends))
	deals := make([]float64, 0, len(trends))
	volume := make([]float64, 0, len(trends))
	for _, p := range trends {
		labels = append(labels, p.Label)
		rates = append(rates, p.WinRate)
		deals = append(deals, float64(p.Deals))
		volume = append(volume, p.ClosedVolume)
	}

	return Visualizations{
		WinRateByType: viz.WinRateByType(typeLabels, typeRates),
		WinRateTrend:  viz.WinRateTrend(labels, rates),
		VolumeTrend:   viz.VolumeTrend(labels, deals, volume),
	}
}
