package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

// TimestampLayout is the UTC second-precision layout used for updated_utc.
const TimestampLayout = "2006-01-02T15:04:05Z"

type Writer struct {
	path string
	now  func() time.Time
}

func NewWriter(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

func (w *Writer) Path() string { return w.path }

// Signals wraps records for the plain mode. total is the number of qualifying
// rows before any cap was applied.
func (w *Writer) Signals(signals []domain.Signal, total int) domain.Envelope {
	return domain.Envelope{
		Mode:       domain.ModeSignals,
		UpdatedUTC: w.timestamp(),
		Count:      len(signals),
		Total:      total,
		Signals:    signals,
	}
}

func (w *Writer) Enriched(items []domain.EnrichedItem, total int, preview string) domain.Envelope {
	return domain.Envelope{
		Mode:       domain.ModeEnriched,
		UpdatedUTC: w.timestamp(),
		Count:      len(items),
		Total:      total,
		Items:      items,
		Preview:    preview,
	}
}

// Write overwrites the output file with the indented envelope.
func (w *Writer) Write(env domain.Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(w.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) timestamp() string {
	return w.now().UTC().Format(TimestampLayout)
}
