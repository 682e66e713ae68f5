package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/salescope/salescope/internal/reports"
)

// Required source columns, by exact header name.
const (
	ColAccountName    = "Account Name"
	ColOpportunity    = "Opportunity Name"
	ColStage          = "Stage"
	ColCloseDate      = "Close Date"
	ColCreatedDate    = "Created Date"
	ColType           = "Type"
	ColTotalACV       = "Total ACV"
	ColCampaignSource = "Primary Campaign Source"
	ColLostReason     = "Closed Lost Reason"
	ColPracticeArea   = "Law Firm Practice Area"
	ColLawyers        = "NumofLawyers"
)

var requiredColumns = []string{
	ColAccountName, ColOpportunity, ColStage, ColCloseDate, ColCreatedDate,
	ColType, ColTotalACV, ColCampaignSource, ColLostReason, ColPracticeArea,
	ColLawyers,
}

// StageClass buckets an opportunity's lifecycle state.
type StageClass int

const (
	StageOpen StageClass = iota
	StageWon
	StageLost
)

// Closed-state labels recognized by exact match. Any other Stage value is
// treated as open pipeline.
var (
	wonStages  = map[string]struct{}{"Closed Won": {}, "Won": {}}
	lostStages = map[string]struct{}{"Closed Lost": {}, "Lost": {}}
)

// ClassifyStage maps a literal Stage value onto its lifecycle bucket.
func ClassifyStage(stage string) StageClass {
	if _, ok := wonStages[stage]; ok {
		return StageWon
	}
	if _, ok := lostStages[stage]; ok {
		return StageLost
	}
	return StageOpen
}

// Opportunity is one normalized row of the uploaded report. Constructed once
// at normalization time and immutable thereafter.
type Opportunity struct {
	Account        string
	Name           string
	Stage          string
	Class          StageClass
	CreatedDate    time.Time
	CloseDate      time.Time // zero when absent
	HasCloseDate   bool
	Type           string
	ACV            float64
	CampaignSource string
	LostReason     string
	PracticeArea   string
	Lawyers        int // 0 when absent or unparseable
}

// CycleDays returns the close-to-created span in days for closed records
// carrying both dates.
func (o *Opportunity) CycleDays() (float64, bool) {
	if !o.HasCloseDate || o.CreatedDate.IsZero() {
		return 0, false
	}
	return o.CloseDate.Sub(o.CreatedDate).Hours() / 24, true
}

// DaysOpen computes the age of the record relative to now, in whole days.
func (o *Opportunity) DaysOpen(now time.Time) int {
	d := int(now.Sub(o.CreatedDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// SchemaError reports required columns missing from the report header.
// It is fatal for the whole request.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// RowIssue records a row that failed hard validation and was excluded.
type RowIssue struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (i RowIssue) String() string {
	return fmt.Sprintf("row %d: %s %q: %s", i.Row, i.Field, i.Value, i.Reason)
}

// dateLayouts are tried in order when parsing report dates.
var dateLayouts = []string{
	"2006-01-02", "2006-01-02 15:04:05", "1/2/2006", "01/02/2006", time.RFC3339,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseACV coerces a cell to a non-negative decimal. Blank, unparseable, or
// negative values coerce to 0 without failing the row.
func parseACV(s string) float64 {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', ' ':
			return -1
		default:
			return r
		}
	}, s)
	if clean == "" {
		return 0
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func parseLawyers(s string) int {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0
	}
	// Exports sometimes render integer counts as floats ("120.0").
	if f, err := strconv.ParseFloat(clean, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

// Normalize validates the report schema and coerces raw rows into typed
// Opportunity records. Rows failing hard validation (bad dates, inverted
// date order) are excluded and reported as issues; the caller decides
// whether an emptied dataset is fatal.
func Normalize(tbl *reports.Table) ([]Opportunity, []RowIssue, error) {
	if tbl == nil {
		return nil, nil, &SchemaError{Missing: requiredColumns}
	}

	idx := make(map[string]int, len(tbl.Header))
	for i, h := range tbl.Header {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, nil, &SchemaError{Missing: missing}
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]Opportunity, 0, len(tbl.Rows))
	var issues []RowIssue
	for n, row := range tbl.Rows {
		created, ok := parseDate(cell(row, ColCreatedDate))
		if !ok {
			issues = append(issues, RowIssue{Row: n + 1, Field: ColCreatedDate, Value: cell(row, ColCreatedDate), Reason: "unparseable date"})
			continue
		}

		closeRaw := cell(row, ColCloseDate)
		var closeDate time.Time
		hasClose := false
		if closeRaw != "" {
			closeDate, hasClose = parseDate(closeRaw)
			if !hasClose {
				issues = append(issues, RowIssue{Row: n + 1, Field: ColCloseDate, Value: closeRaw, Reason: "unparseable date"})
				continue
			}
			if closeDate.Before(created) {
				issues = append(issues, RowIssue{Row: n + 1, Field: ColCloseDate, Value: closeRaw, Reason: "close date precedes created date"})
				continue
			}
		}

		stage := cell(row, ColStage)
		records = append(records, Opportunity{
			Account:        cell(row, ColAccountName),
			Name:           cell(row, ColOpportunity),
			Stage:          stage,
			Class:          ClassifyStage(stage),
			CreatedDate:    created,
			CloseDate:      closeDate,
			HasCloseDate:   hasClose,
			Type:           cell(row, ColType),
			ACV:            parseACV(cell(row, ColTotalACV)),
			CampaignSource: cell(row, ColCampaignSource),
			LostReason:     cell(row, ColLostReason),
			PracticeArea:   cell(row, ColPracticeArea),
			Lawyers:        parseLawyers(cell(row, ColLawyers)),
		})
	}
	return records, issues, nil
}
