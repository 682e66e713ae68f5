package apperr

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func errText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewUsesCatalogMessage(t *testing.T) {
	msg := errText(t, New(InvalidHandle, ""))
	require.True(t, strings.HasPrefix(msg, "INVALID_HANDLE: report handle not found or expired"))
	require.Contains(t, msg, "nextSteps:")
}

func TestNewMessageOverride(t *testing.T) {
	msg := errText(t, New(SchemaInvalid, "missing required columns: Stage"))
	require.True(t, strings.HasPrefix(msg, "SCHEMA_INVALID: missing required columns: Stage"))
}

func TestWrapfFormats(t *testing.T) {
	msg := errText(t, Wrapf(OpenFailed, "open %s: %v", "r.csv", "permission denied"))
	require.Contains(t, msg, "OPEN_FAILED: open r.csv: permission denied")
}

func TestFromTextParsesCode(t *testing.T) {
	msg := errText(t, FromText("CURSOR_INVALID: failed to decode cursor"))
	require.True(t, strings.HasPrefix(msg, "CURSOR_INVALID: failed to decode cursor"))
	require.Contains(t, msg, "Restart pagination")
}

func TestFromTextDefaultsToValidation(t *testing.T) {
	msg := errText(t, FromText(""))
	require.True(t, strings.HasPrefix(msg, "VALIDATION: invalid inputs"))
}

func TestUnknownCodePreserved(t *testing.T) {
	msg := errText(t, New(Code("MYSTERY"), "something odd"))
	require.Equal(t, "MYSTERY: something odd", msg)
}
