package api

import "time"

type RiskCounts struct {
	High int `json:"high"`
	Med  int `json:"med"`
	Low  int `json:"low"`
}

type Run struct {
	ID             string     `json:"id"`
	Mode           string     `json:"mode"`
	Status         string     `json:"status"`
	SourceURL      string     `json:"source_url"`
	OutputPath     string     `json:"output_path"`
	RowsRead       int        `json:"rows_read"`
	Total          int        `json:"total"`
	RecordsWritten int        `json:"records_written"`
	EnrichFailures int        `json:"enrich_failures"`
	Risks          RiskCounts `json:"risks"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	DurationMs     *int64     `json:"duration_ms,omitempty"`
	Error          *string    `json:"error,omitempty"`
}

type RunList struct {
	Runs []Run `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
