package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

type Emitter interface {
	Emit(ctx context.Context, event RunEvent) error
}

// LogEmitter writes the event through the context logger.
type LogEmitter struct{}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{}
}

func (e *LogEmitter) Emit(ctx context.Context, event RunEvent) error {
	logger := zerolog.Ctx(ctx)
	level := zerolog.InfoLevel
	if event.Error != "" {
		level = zerolog.WarnLevel
	}

	logger.WithLevel(level).
		Str("run_id", event.RunID).
		Str("mode", event.Mode).
		Str("status", event.Status).
		Int("rows_read", event.RowsRead).
		Int("records_written", event.RecordsWritten).
		Int("enrich_failures", event.EnrichFailures).
		Interface("risks", event.Risks).
		Int64("duration_ms", event.DurationMs).
		Str("error", event.Error).
		Msg("run finished")
	return nil
}

type MultiEmitter struct {
	emitters []Emitter
}

func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

// Emit fans out to every emitter and joins their errors.
func (m *MultiEmitter) Emit(ctx context.Context, event RunEvent) error {
	var errs []error
	for _, e := range m.emitters {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
