package domain

import "time"

// Report represents a complete run summary
type Report struct {
	Title    string
	Period   TimePeriod
	Sections []ReportSection
}

// TimePeriod represents the wall-clock window of the run
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

func (p TimePeriod) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// ReportSection represents a logical section in the report
type ReportSection struct {
	Title   string
	Summary map[string]interface{}
	Details []ReportDetail
}

// ReportDetail represents detailed information within a section
type ReportDetail struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}
