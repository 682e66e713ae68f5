package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// Hooks provides lifecycle logging for the analysis server. It is
// intentionally minimal; metrics backends can be added later under this
// package.
type Hooks struct {
	logger zerolog.Logger
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// OnReportOpened records a successfully opened report handle.
func (h *Hooks) OnReportOpened(reportID, path string, rows int) {
	h.logger.Info().Str("report_id", reportID).Str("path", path).Int("rows", rows).Msg("report opened")
}

// OnReportClosed records a released report handle.
func (h *Hooks) OnReportClosed(reportID string) {
	h.logger.Info().Str("report_id", reportID).Msg("report closed")
}

// OnAnalysis logs a completed analysis run with its scope and duration.
func (h *Hooks) OnAnalysis(path, dateRange string, analyzed, skipped int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Error().Str("path", path).Str("date_range", dateRange).Dur("duration", duration).Err(err).Msg("analysis failed")
		return
	}
	h.logger.Info().
		Str("path", path).
		Str("date_range", dateRange).
		Int("rows_analyzed", analyzed).
		Int("rows_skipped", skipped).
		Dur("duration", duration).
		Msg("analysis completed")
}

// OnPreview logs report preview serving.
func (h *Hooks) OnPreview(reportID string, rows int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Error().Str("report_id", reportID).Dur("duration", duration).Err(err).Msg("preview error")
		return
	}
	h.logger.Info().Str("report_id", reportID).Int("rows", rows).Dur("duration", duration).Msg("preview served")
}
