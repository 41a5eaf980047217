package store

import "time"

type Run struct {
	ID             string
	Mode           string
	Status         string
	SourceURL      string
	OutputPath     string
	RowsRead       int
	Total          int
	RecordsWritten int
	EnrichFailures int
	HighCount      int
	MedCount       int
	LowCount       int
	StartedAt      time.Time
	FinishedAt     *time.Time
	Error          *string
}
