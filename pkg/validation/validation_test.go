package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salescope/salescope/pkg/pagination"
)

type openInput struct {
	Path string `validate:"required,report_ext"`
}

type analyzeInput struct {
	DateRange string `validate:"daterange"`
}

type pageInput struct {
	Cursor string `validate:"omitempty,cursor"`
}

func TestReportExtRule(t *testing.T) {
	require.Empty(t, ValidateStruct(openInput{Path: "/data/report.csv"}))
	require.Empty(t, ValidateStruct(openInput{Path: "/data/Report.XLSX"}))
	require.Empty(t, ValidateStruct(openInput{Path: "/data/macro.xlsm"}))

	msg := ValidateStruct(openInput{Path: "/data/report.pdf"})
	require.True(t, strings.HasPrefix(msg, "VALIDATION:"))
	require.Contains(t, msg, ".csv")

	msg = ValidateStruct(openInput{})
	require.Contains(t, msg, "path is required")
}

func TestDateRangeRule(t *testing.T) {
	for _, r := range DateRanges {
		require.Empty(t, ValidateStruct(analyzeInput{DateRange: r}))
	}
	require.Empty(t, ValidateStruct(analyzeInput{})) // empty defaults upstream

	msg := ValidateStruct(analyzeInput{DateRange: "h1"})
	require.Contains(t, msg, "date_range must be one of")
	require.Contains(t, msg, "last_year")
}

func TestCursorRule(t *testing.T) {
	require.Empty(t, ValidateStruct(pageInput{}))

	token, err := pagination.EncodeCursor(pagination.Cursor{Rid: "r", Off: 0, Ps: 10})
	require.NoError(t, err)
	require.Empty(t, ValidateStruct(pageInput{Cursor: token}))

	msg := ValidateStruct(pageInput{Cursor: "///bad"})
	require.True(t, strings.HasPrefix(msg, "CURSOR_INVALID:"))
}
