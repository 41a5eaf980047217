package signals

import (
	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

const (
	FieldType      = "type"
	FieldName      = "name"
	FieldState     = "state"
	FieldEffective = "effective"
	FieldEnd       = "end"
	FieldLink      = "link"

	DefaultType = "Compliance action"
	DefaultName = "Unnamed entity"
)

// Record is a qualifying row together with the signal derived from it.
type Record struct {
	Row    domain.RawRow
	Signal domain.Signal
	Link   string
}

// Title is the human-readable label used for enrichment prompts and items.
func (r Record) Title() string {
	return r.Signal.Type + ": " + r.Signal.Name
}

type Builder struct {
	picker     *Picker
	classifier *Classifier
}

func NewBuilder(picker *Picker, classifier *Classifier) *Builder {
	return &Builder{picker: picker, classifier: classifier}
}

// Records maps every row that has an action type or a name to a Record,
// preserving input order. Rows with neither are dropped.
func (b *Builder) Records(rows []domain.RawRow) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		actionType := b.picker.Pick(row, FieldType)
		name := b.picker.Pick(row, FieldName)
		if actionType == "" && name == "" {
			continue
		}

		sig := domain.Signal{
			Risk:      b.classifier.Classify(actionType),
			Type:      actionType,
			Name:      name,
			State:     b.picker.Pick(row, FieldState),
			Effective: NormalizeDate(b.picker.Pick(row, FieldEffective)),
			End:       NormalizeDate(b.picker.Pick(row, FieldEnd)),
		}
		if sig.Type == "" {
			sig.Type = DefaultType
		}
		if sig.Name == "" {
			sig.Name = DefaultName
		}

		out = append(out, Record{Row: row, Signal: sig, Link: b.picker.Pick(row, FieldLink)})
	}
	return out
}

// Signals returns the signals of records, in order.
func Signals(records []Record) []domain.Signal {
	out := make([]domain.Signal, len(records))
	for i, r := range records {
		out[i] = r.Signal
	}
	return out
}

// Cap truncates items to at most limit elements; limit <= 0 means no cap.
func Cap[T any](items []T, limit int) []T {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}

// CountRisks tallies signals per risk bucket.
func CountRisks(sigs []domain.Signal) domain.RiskCounts {
	counts := domain.RiskCounts{domain.RiskHigh: 0, domain.RiskMed: 0, domain.RiskLow: 0}
	for _, s := range sigs {
		counts[s.Risk]++
	}
	return counts
}
