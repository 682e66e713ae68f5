package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salescope/salescope/internal/reports"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// opp builds a normalized record for compute-layer tests. Close date may be
// empty for open records.
func opp(account, name, stage, created, closed, typ string, acv float64) Opportunity {
	o := Opportunity{
		Account:     account,
		Name:        name,
		Stage:       stage,
		Class:       ClassifyStage(stage),
		CreatedDate: day(created),
		Type:        typ,
		ACV:         acv,
	}
	if closed != "" {
		o.CloseDate = day(closed)
		o.HasCloseDate = true
	}
	return o
}

func sampleTable() *reports.Table {
	return &reports.Table{
		Source: "sample.csv",
		Header: []string{
			"Account Name", "Opportunity Name", "Stage", "Close Date", "Created Date",
			"Type", "Total ACV", "Primary Campaign Source", "Closed Lost Reason",
			"Law Firm Practice Area", "NumofLawyers",
		},
		Rows: [][]string{
			{"Acme LLP", "Acme Renewal", "Closed Won", "2024-03-10", "2024-01-05", "Renewal", "$120,000.00", "Q1 Email Blast", "", "Litigation", "120"},
			{"Bravo LLP", "Bravo New", "Closed Lost", "2024-04-01", "2024-02-01", "New Business", "80000", "Webinar Series", "Price", "Corporate; Tax", "45"},
			{"Cano LLP", "Cano Pilot", "Negotiation", "", "2024-05-20", "New Business", "50000", "", "", "", ""},
		},
	}
}

func TestClassifyStage(t *testing.T) {
	require.Equal(t, StageWon, ClassifyStage("Closed Won"))
	require.Equal(t, StageWon, ClassifyStage("Won"))
	require.Equal(t, StageLost, ClassifyStage("Closed Lost"))
	require.Equal(t, StageLost, ClassifyStage("Lost"))
	require.Equal(t, StageOpen, ClassifyStage("Negotiation"))
	require.Equal(t, StageOpen, ClassifyStage("closed won"))
	require.Equal(t, StageOpen, ClassifyStage(""))
}

func TestNormalizeHappyPath(t *testing.T) {
	records, issues, err := Normalize(sampleTable())
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Len(t, records, 3)

	first := records[0]
	require.Equal(t, "Acme LLP", first.Account)
	require.Equal(t, StageWon, first.Class)
	require.Equal(t, 120000.0, first.ACV)
	require.Equal(t, 120, first.Lawyers)
	require.True(t, first.HasCloseDate)

	open := records[2]
	require.Equal(t, StageOpen, open.Class)
	require.False(t, open.HasCloseDate)
	require.Equal(t, 0, open.Lawyers)
}

func TestNormalizeMissingColumnsFatal(t *testing.T) {
	tbl := sampleTable()
	tbl.Header = tbl.Header[:9] // drop practice area and lawyers

	records, issues, err := Normalize(tbl)
	require.Nil(t, records)
	require.Nil(t, issues)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, []string{"Law Firm Practice Area", "NumofLawyers"}, schemaErr.Missing)
}

func TestNormalizeRowIssues(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows = append(tbl.Rows,
		[]string{"Delta LLP", "Delta Deal", "Closed Won", "2024-01-01", "not-a-date", "Renewal", "10000", "", "", "", ""},
		[]string{"Echo LLP", "Echo Deal", "Closed Won", "2024-01-01", "2024-06-01", "Renewal", "10000", "", "", "", ""},
	)

	records, issues, err := Normalize(tbl)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Len(t, issues, 2)

	require.Equal(t, 4, issues[0].Row)
	require.Equal(t, ColCreatedDate, issues[0].Field)
	require.Equal(t, "unparseable date", issues[0].Reason)

	require.Equal(t, 5, issues[1].Row)
	require.Equal(t, ColCloseDate, issues[1].Field)
	require.Equal(t, "close date precedes created date", issues[1].Reason)
}

func TestParseACV(t *testing.T) {
	require.Equal(t, 120000.0, parseACV("$120,000.00"))
	require.Equal(t, 80000.0, parseACV("80000"))
	require.Equal(t, 0.0, parseACV(""))
	require.Equal(t, 0.0, parseACV("n/a"))
	require.Equal(t, 0.0, parseACV("-500"))
}

func TestParseLawyers(t *testing.T) {
	require.Equal(t, 120, parseLawyers("120"))
	require.Equal(t, 120, parseLawyers("120.0"))
	require.Equal(t, 1200, parseLawyers("1,200"))
	require.Equal(t, 0, parseLawyers(""))
	require.Equal(t, 0, parseLawyers("unknown"))
}

func TestCycleDays(t *testing.T) {
	o := opp("A", "A1", "Closed Won", "2024-01-01", "2024-01-31", "Renewal", 1000)
	d, ok := o.CycleDays()
	require.True(t, ok)
	require.Equal(t, 30.0, d)

	open := opp("B", "B1", "Negotiation", "2024-01-01", "", "Renewal", 1000)
	_, ok = open.CycleDays()
	require.False(t, ok)
}
