package reports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadTableCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "report.csv",
		"Account Name,Stage,Total ACV\nAcme LLP,Closed Won,120000\nBravo LLP,Negotiation,\n")

	tbl, err := LoadTable(path, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"Account Name", "Stage", "Total ACV"}, tbl.Header)
	require.Equal(t, 2, tbl.RowCount())
	require.Equal(t, "Acme LLP", tbl.Rows[0][0])
	require.Equal(t, "", tbl.Rows[1][2])
}

func TestLoadTableCSVRaggedRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "ragged.csv",
		"A,B,C\n1,2\n1,2,3,4\n")

	tbl, err := LoadTable(path, 0)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	// Rows normalize to header width: short rows pad, long rows truncate.
	require.Len(t, tbl.Rows[0], 3)
	require.Equal(t, "", tbl.Rows[0][2])
	require.Len(t, tbl.Rows[1], 3)
}

func TestLoadTableCSVMaxRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "big.csv", "A\n1\n2\n3\n4\n5\n")

	tbl, err := LoadTable(path, 3)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.RowCount())
}

func TestLoadTableWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "report.xlsx", [][]any{
		{"Account Name", "Stage", "Total ACV"},
		{"Acme LLP", "Closed Won", 120000},
		{"Bravo LLP", "Negotiation", 50000},
	})

	tbl, err := LoadTable(path, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"Account Name", "Stage", "Total ACV"}, tbl.Header)
	require.Equal(t, 2, tbl.RowCount())
	require.Equal(t, "120000", tbl.Rows[0][2])
}

func TestLoadTableEmptyCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "empty.csv", "")

	_, err := LoadTable(path, 0)
	require.Error(t, err)
}

func TestLoadTableUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "report.txt", "a,b\n1,2\n")

	_, err := LoadTable(path, 0)
	require.Error(t, err)
}
