// Package analysis implements the opportunity-report analysis engine:
// normalization, date-window filtering, and the independent analysis
// branches assembled into one deterministic document.
package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salescope/salescope/internal/reports"
)

// Options selects the scope and bucketing for one analysis run. Now is
// injectable for reproducible output; the zero value means wall clock.
type Options struct {
	DateRange string
	Interval  Interval
	Now       time.Time
}

// Engine runs the full analysis over a loaded report table. It holds no
// state between runs; identical inputs produce byte-identical documents.
type Engine struct{}

// NewEngine returns a stateless engine.
func NewEngine() *Engine { return &Engine{} }

// Analyze normalizes the table, filters to the requested window, and fans
// the independent branches out concurrently. A SchemaError from the
// normalizer is fatal; per-row issues are reported in Data Quality and the
// affected rows excluded. An empty filtered scope still yields a complete
// document with every section in its designated empty shape.
func (e *Engine) Analyze(ctx context.Context, tbl *reports.Table, opts Options) (Document, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	dr, err := ParseDateRange(opts.DateRange)
	if err != nil {
		return Document{}, err
	}
	win, err := ResolveWindow(dr, now)
	if err != nil {
		return Document{}, err
	}

	all, issues, err := Normalize(tbl)
	if err != nil {
		return Document{}, err
	}
	records := FilterByWindow(all, win)

	scope := ScopeInfo{
		DateRange: string(dr),
		Interval:  string(opts.Interval),
		Records:   len(records),
	}
	if opts.Interval == IntervalAuto && len(records) > 0 {
		min, max := createdSpan(records)
		scope.Interval = string(resolveInterval(IntervalAuto, min, max))
	} else if opts.Interval == IntervalAuto {
		scope.Interval = string(IntervalMonth)
	}
	if win.Bounded {
		scope.From = win.Start.Format(displayDate)
		scope.To = win.End.Format(displayDate)
	}
	quality := DataQuality{
		RowsSeen:     tbl.RowCount(),
		RowsAnalyzed: len(all),
		RowsSkipped:  len(issues),
		Issues:       issues,
	}

	var (
		metrics  CoreMetrics
		segments SegmentPerformance
		pipeline PipelineHealth
		wins     OutcomeSummary
		losses   OutcomeSummary
		scores   []OpenScore
		trends   []TrendPoint
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { metrics = ComputeCoreMetrics(records); return nil })
	g.Go(func() error { segments = ComputeSegments(records); return nil })
	g.Go(func() error { pipeline = ComputePipelineHealth(records, now); return nil })
	g.Go(func() error { wins = AnalyzeWins(records); return nil })
	g.Go(func() error { losses = AnalyzeLosses(records); return nil })
	g.Go(func() error { scores = ScoreOpenOpportunities(records, now); return nil })
	g.Go(func() error { trends = BuildTrends(records, opts.Interval); return nil })
	if err := g.Wait(); err != nil {
		return Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	return AssembleDocument(scope, quality, records, metrics, segments, pipeline, wins, losses, scores, trends), nil
}
