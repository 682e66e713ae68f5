package runtime

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestToolMiddlewarePassThrough(t *testing.T) {
	mw := NewMiddleware(NewController(NewLimits(2, 2)))

	called := false
	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, "ok", textOf(t, res))
}

func TestToolMiddlewareBusy(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.AcquireRequestTimeout = 20 * time.Millisecond
	ctrl := NewController(limits)
	mw := NewMiddleware(ctrl)

	// Hold the only request slot so the middleware cannot acquire.
	require.NoError(t, ctrl.AcquireRequest(context.Background()))
	defer ctrl.ReleaseRequest()

	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	text := textOf(t, res)
	require.True(t, strings.HasPrefix(text, "BUSY_RESOURCE:"))
	require.Contains(t, text, "(max=1)")
	// Catalog routing appends retry guidance for clients that only see text.
	require.Contains(t, text, "nextSteps: Retry after a short delay")
}

func TestToolMiddlewareTimeout(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.OperationTimeout = 10 * time.Millisecond
	mw := NewMiddleware(NewController(limits))

	handler := mw.ToolMiddleware(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	text := textOf(t, res)
	require.True(t, strings.HasPrefix(text, "TIMEOUT: operation exceeded configured time limit"))
	require.Contains(t, text, "nextSteps:")
}
