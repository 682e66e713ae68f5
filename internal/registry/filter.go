package registry

import (
	"context"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// RawPreviewFilter conditionally hides the raw-data preview tool unless
// explicitly enabled. Enable by setting SALESCOPE_ENABLE_RAW_PREVIEW=true.
type RawPreviewFilter struct {
	allowPreview bool
}

// NewRawPreviewFilterFromEnv constructs a filter using SALESCOPE_ENABLE_RAW_PREVIEW.
func NewRawPreviewFilterFromEnv() *RawPreviewFilter {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SALESCOPE_ENABLE_RAW_PREVIEW")))
	allow := v == "1" || v == "true" || v == "yes"
	return &RawPreviewFilter{allowPreview: allow}
}

// FilterTools implements server tool filtering semantics. When raw preview
// is disabled, preview_ tools are excluded from discovery so clients only
// see the aggregated analysis surface.
func (f *RawPreviewFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowPreview {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if strings.HasPrefix(strings.ToLower(t.Name), "preview_") {
			continue
		}
		out = append(out, t)
	}
	return out
}
