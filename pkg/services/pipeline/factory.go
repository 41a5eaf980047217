package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-signals/pkg/llm/gemini"
	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/services/config"
	"github.com/de-tools/compliance-signals/pkg/services/enrich"
	"github.com/de-tools/compliance-signals/pkg/services/events"
	"github.com/de-tools/compliance-signals/pkg/services/metrics"
	"github.com/de-tools/compliance-signals/pkg/services/publish"
	"github.com/de-tools/compliance-signals/pkg/services/report"
	"github.com/de-tools/compliance-signals/pkg/services/signals"
	"github.com/de-tools/compliance-signals/pkg/services/source"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite/runs"
)

// Build wires a Runner from configuration. The returned cleanup releases
// every client that was opened and is safe to call when err != nil.
func Build(ctx context.Context, cfg *config.Config) (*Runner, func(), error) {
	logger := zerolog.Ctx(ctx)

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn().Err(err).Msg("failed to release resource")
			}
		}
	}

	deps := Dependencies{
		Fetcher: source.NewFetcher(cfg.Source),
		Builder: signals.NewBuilder(signals.NewPicker(cfg.Fields), signals.NewClassifier(cfg.Risk.Rules)),
		Writer:  report.NewWriter(cfg.Output.Path),
		Metrics: metrics.NewRecorder(cfg.Metrics.Job),
	}

	if cfg.Mode == domain.ModeEnriched {
		key, err := cfg.ResolveAPIKey(ctx)
		if err != nil {
			return nil, cleanup, err
		}

		if key == "" {
			deps.Enricher = enrich.New(nil, 0)
		} else {
			client, err := gemini.New(ctx, key, cfg.Enrich.Model)
			if err != nil {
				return nil, cleanup, err
			}
			closers = append(closers, client.Close)
			deps.Enricher = enrich.New(client, cfg.Enrich.Timeout).WithRateLimit(cfg.Enrich.RequestsPerMinute)
			logger.Info().Str("model", client.Model()).Msg("enrichment enabled")
		}
	}

	if cfg.Publish.Bucket != "" {
		pub, err := publish.NewS3Publisher(ctx, cfg.Publish)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Publisher = pub
	}

	if cfg.History.Path != "" {
		db, err := sqlite.NewDB(ctx, sqlite.Settings{DbPath: cfg.History.Path})
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open run history: %w", err)
		}
		closers = append(closers, db.Close)

		store, err := runs.NewStore(db)
		if err != nil {
			return nil, cleanup, err
		}
		deps.History = store
	}

	emitters := []events.Emitter{events.NewLogEmitter()}
	if cfg.Events.ProjectID != "" && cfg.Events.TopicID != "" {
		ps, err := events.NewPubSubEmitter(ctx, cfg.Events.ProjectID, cfg.Events.TopicID)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, ps.Close)
		emitters = append(emitters, ps)
	}
	deps.Emitter = events.NewMultiEmitter(emitters...)

	runner, err := NewRunner(deps, Options{
		Mode:           cfg.Mode,
		Strict:         cfg.Strict,
		MaxRecords:     cfg.Output.MaxRecords,
		EnrichMaxRows:  cfg.Enrich.MaxRows,
		PreviewChars:   cfg.Output.PreviewChars,
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
	})
	if err != nil {
		return nil, cleanup, err
	}
	return runner, cleanup, nil
}
