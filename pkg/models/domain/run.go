package domain

import "time"

type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusSucceeded   RunStatus = "succeeded"
	RunStatusFailed      RunStatus = "failed"
	RunStatusFetchFailed RunStatus = "fetch_failed"
)

type Run struct {
	ID             string
	Mode           Mode
	Status         RunStatus
	SourceURL      string
	OutputPath     string
	RowsRead       int
	Total          int
	RecordsWritten int
	EnrichFailures int
	Risks          RiskCounts
	StartedAt      time.Time
	FinishedAt     time.Time
	Error          *string
}

// RiskCounts tallies written records per risk bucket.
type RiskCounts map[Risk]int
