package registry

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndSort(t *testing.T) {
	reg := New()
	reg.Register(mcp.NewTool("preview_report"))
	reg.Register(mcp.NewTool("analyze_opportunities"))
	reg.Register(mcp.NewTool("open_report"))

	_, ok := reg.Get("open_report")
	require.True(t, ok)
	_, ok = reg.Get("unknown_tool")
	require.False(t, ok)

	tools, err := reg.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 3)
	require.Equal(t, "analyze_opportunities", tools[0].Name)
	require.Equal(t, "open_report", tools[1].Name)
	require.Equal(t, "preview_report", tools[2].Name)
}

func TestRawPreviewFilterHidesPreview(t *testing.T) {
	t.Setenv("SALESCOPE_ENABLE_RAW_PREVIEW", "")
	f := NewRawPreviewFilterFromEnv()

	tools := []mcp.Tool{
		mcp.NewTool("open_report"),
		mcp.NewTool("preview_report"),
		mcp.NewTool("analyze_opportunities"),
	}
	filtered := f.FilterTools(context.Background(), tools)
	require.Len(t, filtered, 2)
	for _, tool := range filtered {
		require.NotEqual(t, "preview_report", tool.Name)
	}
}

func TestRawPreviewFilterEnabled(t *testing.T) {
	t.Setenv("SALESCOPE_ENABLE_RAW_PREVIEW", "true")
	f := NewRawPreviewFilterFromEnv()

	tools := []mcp.Tool{mcp.NewTool("preview_report")}
	require.Len(t, f.FilterTools(context.Background(), tools), 1)
}

func TestEncodePreviewBudget(t *testing.T) {
	header := []string{"A", "B"}
	window := [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}}

	text, n, truncated, err := encodePreview(header, window, "json", 0)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.False(t, truncated)
	require.Contains(t, text, `"columns":["A","B"]`)

	// A tight budget forces rows to drop from the tail.
	_, n, truncated, err = encodePreview(header, window, "json", 50)
	require.NoError(t, err)
	require.Less(t, n, 3)
	require.True(t, truncated)
}

func TestEncodePreviewCSV(t *testing.T) {
	text, n, truncated, err := encodePreview([]string{"A", "B"}, [][]string{{"1", "2"}}, "csv", 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, truncated)
	require.Equal(t, "A,B\n1,2\n", text)
}
