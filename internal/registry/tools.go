package registry

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/salescope/salescope/internal/analysis"
	"github.com/salescope/salescope/internal/reports"
	"github.com/salescope/salescope/internal/runtime"
	"github.com/salescope/salescope/internal/security"
	"github.com/salescope/salescope/internal/telemetry"
	"github.com/salescope/salescope/pkg/apperr"
	"github.com/salescope/salescope/pkg/pagination"
	"github.com/salescope/salescope/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// OpenReportInput defines parameters for opening a sales report.
type OpenReportInput struct {
	Path string `json:"path" validate:"required,report_ext" jsonschema_description:"Path to a sales report (.csv, .xlsx, .xlsm) inside an allowed directory"`
}

// OpenReportOutput documents the response fields for open_report.
type OpenReportOutput struct {
	ReportID        string   `json:"report_id" jsonschema_description:"Server-assigned report handle ID"`
	Rows            int      `json:"rows" jsonschema_description:"Number of data rows loaded (header excluded)"`
	Columns         []string `json:"columns" jsonschema_description:"Header row column names"`
	MaxPayloadBytes int      `json:"maxPayloadBytes" jsonschema_description:"Effective payload size limit in bytes"`
	PreviewRowLimit int      `json:"previewRowLimit" jsonschema_description:"Default row limit for previews"`
}

// CloseReportInput defines parameters for closing a report handle.
type CloseReportInput struct {
	ReportID string `json:"report_id" validate:"required" jsonschema_description:"Report handle ID to close"`
}

// CloseReportOutput confirms handle release.
type CloseReportOutput struct {
	Success bool `json:"success" jsonschema_description:"True when the handle was closed"`
}

// ListColumnsInput defines parameters for column discovery.
type ListColumnsInput struct {
	ReportID string `json:"report_id" validate:"required" jsonschema_description:"Report handle ID"`
}

// ListColumnsOutput summarizes report structure without row data.
type ListColumnsOutput struct {
	ReportID string   `json:"report_id"`
	Columns  []string `json:"columns"`
	RowCount int      `json:"rowCount"`
}

// PreviewReportInput defines parameters for a bounded raw-row preview.
type PreviewReportInput struct {
	ReportID string `json:"report_id,omitempty" validate:"required_without=Cursor" jsonschema_description:"Report handle ID (omit when cursor is set)"`
	Rows     int    `json:"rows,omitempty" jsonschema_description:"Max rows to return (bounded)"`
	Cursor   string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque pagination cursor from a previous call"`
	Encoding string `json:"encoding,omitempty" validate:"omitempty,oneof=json csv" jsonschema_description:"Output encoding: json or csv"`
}

// PageMeta captures paging/truncation metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// PreviewReportOutput documents preview metadata.
type PreviewReportOutput struct {
	ReportID string   `json:"report_id"`
	Encoding string   `json:"encoding"`
	Columns  []string `json:"columns"`
	Meta     PageMeta `json:"meta"`
}

// AnalyzeOpportunitiesInput defines parameters for the full analysis run.
type AnalyzeOpportunitiesInput struct {
	Path      string `json:"path,omitempty" validate:"required_without=ReportID,omitempty,report_ext" jsonschema_description:"Report path to open or reuse (omit when report_id is set)"`
	ReportID  string `json:"report_id,omitempty" jsonschema_description:"Previously opened report handle ID"`
	DateRange string `json:"date_range,omitempty" validate:"daterange" jsonschema_description:"Scope filter on Created Date: all, ytd, q1-q4, last_year"`
	Interval  string `json:"interval,omitempty" validate:"omitempty,oneof=month quarter" jsonschema_description:"Trend bucketing; defaults to auto (month, quarter when span exceeds a year)"`
}

// AnalyzeOpportunitiesOutput documents the top-level document shape.
type AnalyzeOpportunitiesOutput struct {
	Advanced       map[string]any `json:"Advanced Analysis"`
	Visualizations map[string]any `json:"Visualizations"`
}

// RegisterReportTools wires the report lifecycle and analysis tools.
func RegisterReportTools(
	s *server.MCPServer,
	reg *Registry,
	limits runtime.Limits,
	mgr *reports.Manager,
	engine *analysis.Engine,
	hooks *telemetry.Hooks,
) {
	// open_report
	openTool := mcp.NewTool(
		"open_report",
		mcp.WithDescription("Open a sales opportunity report (.csv, .xlsx, .xlsm) and return a handle ID with effective limits"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a report file inside an allowed directory")),
		mcp.WithOutputSchema[OpenReportOutput](),
	)
	s.AddTool(openTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in OpenReportInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return apperr.FromText(msg), nil
		}
		id, canonical, err := mgr.Open(ctx, in.Path)
		if err != nil {
			return openErrorResult(err), nil
		}
		var out OpenReportOutput
		if err := mgr.WithTable(id, func(t *reports.Table) error {
			out = OpenReportOutput{
				ReportID:        id,
				Rows:            t.RowCount(),
				Columns:         append([]string(nil), t.Header...),
				MaxPayloadBytes: limits.MaxPayloadBytes,
				PreviewRowLimit: limits.PreviewRowLimit,
			}
			return nil
		}); err != nil {
			return apperr.Wrapf(apperr.OpenFailed, "read loaded report: %v", err), nil
		}
		hooks.OnReportOpened(id, canonical, out.Rows)
		summary := fmt.Sprintf("report_id=%s rows=%d columns=%d", id, out.Rows, len(out.Columns))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(openTool)

	// close_report
	closeTool := mcp.NewTool(
		"close_report",
		mcp.WithDescription("Close a previously opened report handle and release its capacity"),
		mcp.WithString("report_id", mcp.Required(), mcp.Description("Report handle ID")),
		mcp.WithOutputSchema[CloseReportOutput](),
	)
	s.AddTool(closeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CloseReportInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return apperr.FromText(msg), nil
		}
		if err := mgr.CloseHandle(ctx, in.ReportID); err != nil {
			if errors.Is(err, reports.ErrHandleNotFound) {
				return apperr.New(apperr.InvalidHandle, ""), nil
			}
			return apperr.Wrapf(apperr.OpenFailed, "close handle: %v", err), nil
		}
		hooks.OnReportClosed(in.ReportID)
		out := CloseReportOutput{Success: true}
		res := mcp.NewToolResultStructured(out, "closed")
		res.Content = []mcp.Content{mcp.NewTextContent("closed " + in.ReportID)}
		return res, nil
	}))
	reg.Register(closeTool)

	// list_columns
	listTool := mcp.NewTool(
		"list_columns",
		mcp.WithDescription("Return report structure: column names and row count (no cell data)"),
		mcp.WithString("report_id", mcp.Required(), mcp.Description("Report handle ID")),
		mcp.WithOutputSchema[ListColumnsOutput](),
	)
	s.AddTool(listTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ListColumnsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return apperr.FromText(msg), nil
		}
		var out ListColumnsOutput
		err := mgr.WithTable(in.ReportID, func(t *reports.Table) error {
			out = ListColumnsOutput{
				ReportID: in.ReportID,
				Columns:  append([]string(nil), t.Header...),
				RowCount: t.RowCount(),
			}
			return nil
		})
		if err != nil {
			return apperr.New(apperr.InvalidHandle, ""), nil
		}
		summary := fmt.Sprintf("columns=%d rows=%d", len(out.Columns), out.RowCount)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(listTool)

	// preview_report
	previewTool := mcp.NewTool(
		"preview_report",
		mcp.WithDescription("Stream a bounded preview of raw report rows with cursor pagination"),
		mcp.WithString("report_id", mcp.Description("Report handle ID (omit when cursor is set)")),
		mcp.WithNumber("rows", mcp.DefaultNumber(float64(limits.PreviewRowLimit)), mcp.Min(1), mcp.Max(1000), mcp.Description("Max rows to return")),
		mcp.WithString("cursor", mcp.Description("Opaque pagination cursor from a previous call")),
		mcp.WithString("encoding", mcp.DefaultString("json"), mcp.Enum("json", "csv"), mcp.Description("Output encoding")),
		mcp.WithOutputSchema[PreviewReportOutput](),
	)
	s.AddTool(previewTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in PreviewReportInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return apperr.FromText(msg), nil
		}
		return servePreview(mgr, limits, hooks, in), nil
	}))
	reg.Register(previewTool)

	// analyze_opportunities
	analyzeTool := mcp.NewTool(
		"analyze_opportunities",
		mcp.WithDescription("Run the full opportunity analysis over a report: core metrics, segment performance, pipeline health, win/loss insights, open-opportunity scoring, trends, and chart payloads. Accepts a path (opened or reused automatically) or an existing report_id. Scope with date_range (all, ytd, q1-q4, last_year) on Created Date; interval controls trend bucketing. Output is deterministic: identical inputs produce byte-identical documents. Rows failing hard validation are excluded and reported under Data Quality; missing required columns fail the whole request with SCHEMA_INVALID."),
		mcp.WithString("path", mcp.Description("Report path to open or reuse (omit when report_id is set)")),
		mcp.WithString("report_id", mcp.Description("Previously opened report handle ID")),
		mcp.WithString("date_range", mcp.DefaultString("all"), mcp.Enum(validation.DateRanges...), mcp.Description("Scope filter on Created Date")),
		mcp.WithString("interval", mcp.Enum("month", "quarter"), mcp.Description("Trend bucketing; defaults to auto")),
		mcp.WithOutputSchema[AnalyzeOpportunitiesOutput](),
	)
	s.AddTool(analyzeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in AnalyzeOpportunitiesInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return apperr.FromText(msg), nil
		}

		start := time.Now()
		id := in.ReportID
		path := in.Path
		if id == "" {
			openedID, canonical, err := mgr.GetOrOpenByPath(ctx, in.Path)
			if err != nil {
				return openErrorResult(err), nil
			}
			id = openedID
			path = canonical
		}

		var doc analysis.Document
		err := mgr.WithTable(id, func(t *reports.Table) error {
			var runErr error
			doc, runErr = engine.Analyze(ctx, t, analysis.Options{
				DateRange: in.DateRange,
				Interval:  analysis.Interval(in.Interval),
			})
			return runErr
		})
		hooks.OnAnalysis(path, in.DateRange, doc.Advanced.DataQuality.RowsAnalyzed, doc.Advanced.DataQuality.RowsSkipped, time.Since(start), err)
		if err != nil {
			var schemaErr *analysis.SchemaError
			switch {
			case errors.Is(err, reports.ErrHandleNotFound):
				return apperr.New(apperr.InvalidHandle, ""), nil
			case errors.As(err, &schemaErr):
				return apperr.New(apperr.SchemaInvalid, schemaErr.Error()), nil
			default:
				return apperr.Wrapf(apperr.AnalysisFailed, "%v", err), nil
			}
		}

		payload, err := json.Marshal(doc)
		if err != nil {
			return apperr.Wrapf(apperr.AnalysisFailed, "encode document: %v", err), nil
		}
		summary := fmt.Sprintf("records=%d date_range=%s interval=%s skipped=%d",
			doc.Advanced.Scope.Records, doc.Advanced.Scope.DateRange, doc.Advanced.Scope.Interval, doc.Advanced.DataQuality.RowsSkipped)
		res := mcp.NewToolResultStructured(doc, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(string(payload))}
		return res, nil
	}))
	reg.Register(analyzeTool)
}

// openErrorResult maps report-open failures onto canonical error codes.
func openErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, security.ErrNotAllowed):
		return apperr.New(apperr.PermissionDenied, "")
	case errors.Is(err, security.ErrUnsupportedExtension):
		return apperr.New(apperr.UnsupportedFormat, "")
	case errors.Is(err, security.ErrNotFound):
		return apperr.Wrapf(apperr.OpenFailed, "file not found")
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.New(apperr.Timeout, "")
	default:
		return apperr.Wrapf(apperr.OpenFailed, "%v", err)
	}
}

// servePreview resolves the page window (cursor takes precedence), encodes
// rows in the requested encoding, and trims the page to the payload budget.
func servePreview(mgr *reports.Manager, limits runtime.Limits, hooks *telemetry.Hooks, in PreviewReportInput) *mcp.CallToolResult {
	start := time.Now()

	id := in.ReportID
	offset := 0
	pageSize := in.Rows
	if in.Cursor != "" {
		c, err := pagination.DecodeCursor(in.Cursor)
		if err != nil {
			return apperr.New(apperr.CursorInvalid, "")
		}
		id = c.Rid
		offset = c.Off
		if pageSize <= 0 {
			pageSize = c.Ps
		}
	}
	if pageSize <= 0 {
		pageSize = limits.PreviewRowLimit
	}
	if pageSize > limits.MaxRowsPerOp {
		pageSize = limits.MaxRowsPerOp
	}

	var (
		header []string
		window [][]string
		total  int
	)
	err := mgr.WithTable(id, func(t *reports.Table) error {
		total = t.RowCount()
		if offset > total {
			offset = total
		}
		end := offset + pageSize
		if end > total {
			end = total
		}
		header = append([]string(nil), t.Header...)
		window = make([][]string, 0, end-offset)
		for _, row := range t.Rows[offset:end] {
			window = append(window, append([]string(nil), row...))
		}
		return nil
	})
	if err != nil {
		return apperr.New(apperr.InvalidHandle, "")
	}

	encoding := in.Encoding
	if encoding == "" {
		encoding = "json"
	}
	text, returned, truncated, err := encodePreview(header, window, encoding, limits.MaxPayloadBytes)
	if err != nil {
		hooks.OnPreview(id, 0, time.Since(start), err)
		return apperr.Wrapf(apperr.PreviewFailed, "%v", err)
	}

	meta := PageMeta{Total: total, Returned: returned, Truncated: truncated || offset+returned < total}
	if offset+returned < total {
		token, cerr := pagination.EncodeCursor(pagination.Cursor{
			V:   1,
			Rid: id,
			Off: pagination.NextOffset(offset, returned),
			Ps:  pageSize,
			Rc:  total,
			Iat: time.Now().Unix(),
		})
		if cerr != nil {
			return apperr.Wrapf(apperr.CursorBuildFailed, "%v", cerr)
		}
		meta.NextCursor = token
	}

	hooks.OnPreview(id, returned, time.Since(start), nil)
	out := PreviewReportOutput{ReportID: id, Encoding: encoding, Columns: header, Meta: meta}
	summary := fmt.Sprintf("returned=%d total=%d truncated=%v", meta.Returned, meta.Total, meta.Truncated)
	res := mcp.NewToolResultStructured(out, summary)
	res.Content = []mcp.Content{mcp.NewTextContent(text)}
	return res
}

// encodePreview serializes the window, dropping trailing rows until the
// payload fits the byte budget. Returns the text, rows kept, and whether the
// budget forced truncation.
func encodePreview(header []string, window [][]string, encoding string, budget int) (string, int, bool, error) {
	truncated := false
	for {
		var text string
		switch encoding {
		case "csv":
			var buf bytes.Buffer
			w := csv.NewWriter(&buf)
			if err := w.Write(header); err != nil {
				return "", 0, false, err
			}
			if err := w.WriteAll(window); err != nil {
				return "", 0, false, err
			}
			text = buf.String()
		default:
			b, err := json.Marshal(map[string]any{"columns": header, "rows": window})
			if err != nil {
				return "", 0, false, err
			}
			text = string(b)
		}
		if budget <= 0 || len(text) <= budget || len(window) == 0 {
			return text, len(window), truncated, nil
		}
		window = window[:len(window)-1]
		truncated = true
	}
}
