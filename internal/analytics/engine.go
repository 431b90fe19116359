package analytics

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/smukkama/city-analytics/internal/filters"
	"github.com/smukkama/city-analytics/internal/predicate"
)

// Options configures an Engine
type Options struct {
	// Reference is the fixed instant time windows end at
	Reference time.Time
	// ReferenceFromClock resolves the reference from Clock on every
	// request instead, truncated to the minute
	ReferenceFromClock bool
	// Timeout bounds each request; zero means no deadline of its own
	Timeout  time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Observer QueryObserver
}

// Engine turns filter requests into analytics responses
type Engine struct {
	builder    *predicate.Builder
	aggregator *Aggregator
	bucketer   *Bucketer
	opts       Options
	logger     *slog.Logger
}

// NewEngine creates an analytics engine reading through db
func NewEngine(db Executor, dialect predicate.Dialect, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	run := runner{db: db, clock: opts.Clock, observe: opts.Observer}
	q := queries{dialect: dialect}

	return &Engine{
		builder:    predicate.NewBuilder(dialect),
		aggregator: &Aggregator{run: run, queries: q},
		bucketer:   &Bucketer{run: run, queries: q},
		opts:       opts,
		logger:     logger,
	}
}

// Reference returns the instant the current request's window ends at
func (e *Engine) Reference() time.Time {
	if e.opts.ReferenceFromClock {
		return e.opts.Clock.Now().UTC().Truncate(time.Minute)
	}
	return e.opts.Reference
}

// Analyze normalizes raw filters and runs the full pipeline
func (e *Engine) Analyze(ctx context.Context, raw filters.Raw) (*Response, error) {
	return e.Run(ctx, filters.Normalize(raw), e.Reference())
}

// Run computes the summary and chart series concurrently from one shared
// predicate, then derives alerts from the summary. If any query fails the
// request fails without partial results.
func (e *Engine) Run(ctx context.Context, f filters.Filters, reference time.Time) (*Response, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	p := e.builder.Build(f, reference)
	e.logger.Debug("analytics predicate built",
		"conditions", len(p.Conditions()),
		"params", len(p.Args()),
		"metric", f.Metric,
		"time_range", f.TimeRange,
	)

	var (
		summary *Summary
		series  []ChartPoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = e.aggregator.Summarize(gctx, p, f.Metric)
		return err
	})
	g.Go(func() error {
		var err error
		series, err = e.bucketer.Series(gctx, p, f.TimeRange, f.Metric)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Response{
		Summary:    summary,
		ChartsData: series,
		Alerts:     EvaluateAlerts(summary),
	}, nil
}
