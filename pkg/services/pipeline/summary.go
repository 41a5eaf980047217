package pipeline

import (
	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

// Report summarises a run for terminal output.
func (res *Result) Report() domain.Report {
	run := res.Run

	summary := map[string]interface{}{
		"run_id":          run.ID,
		"mode":            string(run.Mode),
		"status":          string(run.Status),
		"rows_read":       run.RowsRead,
		"total":           run.Total,
		"records_written": run.RecordsWritten,
	}
	if run.Mode == domain.ModeEnriched {
		summary["enrich_failures"] = run.EnrichFailures
	}
	if run.Error != nil {
		summary["error"] = *run.Error
	}

	details := []domain.ReportDetail{
		{Name: "Source", Value: run.SourceURL},
		{Name: "Output", Value: run.OutputPath},
	}
	if res.Envelope != nil {
		details = append(details, domain.ReportDetail{Name: "Updated", Value: res.Envelope.UpdatedUTC, Unit: "UTC"})
	}

	risks := make([]domain.ReportDetail, 0, 3)
	for _, risk := range []domain.Risk{domain.RiskHigh, domain.RiskMed, domain.RiskLow} {
		risks = append(risks, domain.ReportDetail{
			Name:  string(risk),
			Value: run.Risks[risk],
			Unit:  "records",
		})
	}

	return domain.Report{
		Title:  "Compliance signals run",
		Period: domain.TimePeriod{Start: run.StartedAt, End: run.FinishedAt},
		Sections: []domain.ReportSection{
			{Title: "Run", Summary: summary, Details: details},
			{Title: "Risk", Details: risks},
		},
	}
}
