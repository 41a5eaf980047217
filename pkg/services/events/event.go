package events

import (
	"time"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

// RunEvent is published once per pipeline run.
type RunEvent struct {
	RunID          string         `json:"run_id"`
	Timestamp      string         `json:"timestamp"` // RFC3339, UTC
	Mode           string         `json:"mode"`
	Status         string         `json:"status"`
	SourceURL      string         `json:"source_url"`
	OutputPath     string         `json:"output_path"`
	RowsRead       int            `json:"rows_read"`
	RecordsWritten int            `json:"records_written"`
	EnrichFailures int            `json:"enrich_failures"`
	Risks          map[string]int `json:"risks"`
	DurationMs     int64          `json:"duration_ms"`
	Error          string         `json:"error"`
}

func NewRunEvent(run domain.Run, risks domain.RiskCounts) RunEvent {
	counts := make(map[string]int, len(risks))
	for risk, n := range risks {
		counts[string(risk)] = n
	}

	event := RunEvent{
		RunID:          run.ID,
		Timestamp:      run.FinishedAt.UTC().Format(time.RFC3339),
		Mode:           string(run.Mode),
		Status:         string(run.Status),
		SourceURL:      run.SourceURL,
		OutputPath:     run.OutputPath,
		RowsRead:       run.RowsRead,
		RecordsWritten: run.RecordsWritten,
		EnrichFailures: run.EnrichFailures,
		Risks:          counts,
		DurationMs:     run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	}
	if run.Error != nil {
		event.Error = *run.Error
	}
	return event
}
