package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-signals/pkg/adapters"
	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/services/enrich"
	"github.com/de-tools/compliance-signals/pkg/services/events"
	"github.com/de-tools/compliance-signals/pkg/services/metrics"
	"github.com/de-tools/compliance-signals/pkg/services/publish"
	"github.com/de-tools/compliance-signals/pkg/services/report"
	"github.com/de-tools/compliance-signals/pkg/services/signals"
	"github.com/de-tools/compliance-signals/pkg/services/source"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite/runs"
)

var ErrFetchFailed = errors.New("fetch failed")

// Dependencies wires the stages of a run. Publisher, History, Emitter and
// Metrics are optional.
type Dependencies struct {
	Fetcher   source.Fetcher
	Builder   *signals.Builder
	Enricher  *enrich.Enricher
	Writer    *report.Writer
	Publisher publish.Publisher
	History   runs.Store
	Emitter   events.Emitter
	Metrics   *metrics.Recorder
}

type Options struct {
	Mode domain.Mode
	// Strict turns a failed fetch into an error instead of a logged no-op.
	Strict         bool
	MaxRecords     int
	EnrichMaxRows  int
	PreviewChars   int
	PushgatewayURL string
}

type Result struct {
	Run      domain.Run
	Envelope *domain.Envelope
}

type Runner struct {
	deps  Dependencies
	opts  Options
	now   func() time.Time
	newID func() string
}

func NewRunner(deps Dependencies, opts Options) (*Runner, error) {
	if deps.Fetcher == nil || deps.Builder == nil || deps.Writer == nil {
		return nil, fmt.Errorf("fetcher, builder and writer are required")
	}
	switch opts.Mode {
	case domain.ModeSignals:
	case domain.ModeEnriched:
		if deps.Enricher == nil {
			deps.Enricher = enrich.New(nil, 0)
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}

	return &Runner{
		deps:  deps,
		opts:  opts,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// Run executes one fetch-transform-write cycle.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	run := domain.Run{
		ID:         r.newID(),
		Mode:       r.opts.Mode,
		Status:     domain.RunStatusRunning,
		SourceURL:  r.deps.Fetcher.URL(),
		OutputPath: r.deps.Writer.Path(),
		StartedAt:  r.now().UTC(),
	}

	logger := zerolog.Ctx(ctx).With().Str("run_id", run.ID).Str("mode", string(run.Mode)).Logger()
	ctx = logger.WithContext(ctx)

	if r.deps.History != nil {
		if err := r.deps.History.Create(ctx, adapters.MapDomainRunToStore(&run)); err != nil {
			logger.Warn().Err(err).Msg("failed to record run start")
		}
	}

	result := &Result{}
	err := r.execute(ctx, &run, result)

	run.FinishedAt = r.now().UTC()
	if err != nil {
		msg := err.Error()
		run.Error = &msg
		if run.Status == domain.RunStatusRunning {
			run.Status = domain.RunStatusFailed
		}
	} else {
		run.Status = domain.RunStatusSucceeded
	}
	r.finish(ctx, run)
	result.Run = run

	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrFetchFailed) && !r.opts.Strict {
		logger.Error().Err(err).Str("url", run.SourceURL).Msg("fetch failed, no output written")
		return result, nil
	}
	return result, err
}

func (r *Runner) execute(ctx context.Context, run *domain.Run, result *Result) error {
	logger := zerolog.Ctx(ctx)

	text, err := r.deps.Fetcher.Fetch(ctx)
	if err != nil {
		run.Status = domain.RunStatusFetchFailed
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	rows, err := signals.ParseCSV(text)
	if err != nil {
		return err
	}
	run.RowsRead = len(rows)

	records := r.deps.Builder.Records(rows)
	run.Total = len(records)
	records = signals.Cap(records, r.opts.MaxRecords)

	var env domain.Envelope
	switch r.opts.Mode {
	case domain.ModeEnriched:
		records = signals.Cap(records, r.opts.EnrichMaxRows)
		if !r.deps.Enricher.Enabled() {
			logger.Info().Msg("no enrichment key configured, using fallback records")
		}
		items, failures := r.deps.Enricher.Items(ctx, records, 0)
		run.EnrichFailures = failures
		env = r.deps.Writer.Enriched(items, run.Total, source.Preview(text, r.opts.PreviewChars))
	default:
		env = r.deps.Writer.Signals(signals.Signals(records), run.Total)
	}

	if err := r.deps.Writer.Write(env); err != nil {
		return err
	}
	run.RecordsWritten = env.Count
	run.Risks = signals.CountRisks(signals.Signals(records))
	result.Envelope = &env

	logger.Info().
		Int("rows_read", run.RowsRead).
		Int("total", run.Total).
		Int("count", env.Count).
		Str("path", run.OutputPath).
		Msg("output written")

	if r.deps.Publisher != nil {
		if err := r.deps.Publisher.Publish(ctx, run.OutputPath); err != nil {
			return err
		}
	}
	return nil
}

// finish records the outcome. Bookkeeping failures never fail the run.
func (r *Runner) finish(ctx context.Context, run domain.Run) {
	logger := zerolog.Ctx(ctx)

	if r.deps.History != nil {
		if err := r.deps.History.Finish(ctx, adapters.MapDomainRunToStore(&run)); err != nil {
			logger.Warn().Err(err).Msg("failed to record run result")
		}
	}

	if r.deps.Emitter != nil {
		if err := r.deps.Emitter.Emit(ctx, events.NewRunEvent(run, run.Risks)); err != nil {
			logger.Warn().Err(err).Msg("failed to emit run event")
		}
	}

	if r.deps.Metrics != nil {
		r.deps.Metrics.Observe(run, run.Risks)
		if r.opts.PushgatewayURL != "" {
			if err := r.deps.Metrics.Push(ctx, r.opts.PushgatewayURL, run.Mode); err != nil {
				logger.Warn().Err(err).Msg("failed to push metrics")
			}
		}
	}
}
