package adapters

import (
	"github.com/de-tools/compliance-signals/pkg/models/api"
	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/models/store"
)

func MapDomainRunToStore(r *domain.Run) *store.Run {
	if r == nil {
		return nil
	}

	sr := &store.Run{
		ID:             r.ID,
		Mode:           string(r.Mode),
		Status:         string(r.Status),
		SourceURL:      r.SourceURL,
		OutputPath:     r.OutputPath,
		RowsRead:       r.RowsRead,
		Total:          r.Total,
		RecordsWritten: r.RecordsWritten,
		EnrichFailures: r.EnrichFailures,
		HighCount:      r.Risks[domain.RiskHigh],
		MedCount:       r.Risks[domain.RiskMed],
		LowCount:       r.Risks[domain.RiskLow],
		StartedAt:      r.StartedAt,
		Error:          r.Error,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		sr.FinishedAt = &finished
	}
	return sr
}

func MapStoreRunToDomain(r *store.Run) *domain.Run {
	if r == nil {
		return nil
	}

	dr := &domain.Run{
		ID:             r.ID,
		Mode:           domain.Mode(r.Mode),
		Status:         domain.RunStatus(r.Status),
		SourceURL:      r.SourceURL,
		OutputPath:     r.OutputPath,
		RowsRead:       r.RowsRead,
		Total:          r.Total,
		RecordsWritten: r.RecordsWritten,
		EnrichFailures: r.EnrichFailures,
		Risks: domain.RiskCounts{
			domain.RiskHigh: r.HighCount,
			domain.RiskMed:  r.MedCount,
			domain.RiskLow:  r.LowCount,
		},
		StartedAt: r.StartedAt,
		Error:     r.Error,
	}
	if r.FinishedAt != nil {
		dr.FinishedAt = *r.FinishedAt
	}
	return dr
}

func MapRunDomainToApi(r domain.Run) api.Run {
	out := api.Run{
		ID:             r.ID,
		Mode:           string(r.Mode),
		Status:         string(r.Status),
		SourceURL:      r.SourceURL,
		OutputPath:     r.OutputPath,
		RowsRead:       r.RowsRead,
		Total:          r.Total,
		RecordsWritten: r.RecordsWritten,
		EnrichFailures: r.EnrichFailures,
		Risks: api.RiskCounts{
			High: r.Risks[domain.RiskHigh],
			Med:  r.Risks[domain.RiskMed],
			Low:  r.Risks[domain.RiskLow],
		},
		StartedAt: r.StartedAt,
		Error:     r.Error,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		duration := finished.Sub(r.StartedAt).Milliseconds()
		out.FinishedAt = &finished
		out.DurationMs = &duration
	}
	return out
}
