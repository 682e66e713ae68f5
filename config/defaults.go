package config

import "time"

// Default runtime limits and guardrails for the Sales Opportunity Analysis
// Server. These values are conservative and can be overridden by future
// configuration mechanisms (env, CLI, or files). They are referenced by
// internal/runtime and internal/reports.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenReports        = 4

	// Payload and row limits
	DefaultMaxPayloadBytes = 128 * 1024 // 128KB
	DefaultMaxRowsPerOp    = 50_000
	DefaultPreviewRowLimit = 10 // First 10 rows by default
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Report handle lifecycle
	DefaultReportIdleTTL       = 10 * time.Minute
	DefaultReportCleanupPeriod = time.Minute
)

// Engine policy constants. The thresholds and weights below are the single
// configuration point for the analysis heuristics; tune them here rather
// than in the rule tables.

const (
	// AgingThresholdDays flags open opportunities older than this.
	AgingThresholdDays = 30

	// Open-opportunity score weights. Must sum to 1.
	ScoreWeightDealValue = 0.35
	ScoreWeightFreshness = 0.30
	ScoreWeightCampaign  = 0.15
	ScoreWeightPractice  = 0.20

	// Campaign-source quality raw values.
	CampaignQualityCategorized = 1.0
	CampaignQualityOther       = 0.5

	// Risk classification thresholds on the 0-100 score.
	RiskLowMinScore    = 70.0
	RiskMediumMinScore = 40.0
)

const (
	// Sales-cycle insight: flagged when one outcome's average cycle exceeds
	// the opposite outcome's by these ratios.
	CycleRatioMedium = 1.25
	CycleRatioHigh   = 1.5

	// Concentration-risk insight: share of an outcome's value held by a
	// single Practice Area or Type.
	ConcentrationShareMedium = 0.40
	ConcentrationShareHigh   = 0.60

	// Dominant loss reason: share of losses held by one reason.
	DominantReasonShare = 0.50

	// Type-analysis loss rate that escalates severity to high (percent).
	HighLossRatePct = 75.0

	// Sample-size gates for segment and campaign insight lines.
	MinSegmentSample  = 5
	MinCampaignSample = 3

	// Campaign loss analysis escalates to high severity when one category
	// reaches this many losses.
	HighCampaignLossCount = 5

	// Caps on bullet lines per insight.
	TopLossReasons   = 5
	TopPracticeAreas = 5
)
