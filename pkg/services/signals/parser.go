package signals

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

// ParseCSV reads CSV text with a header line into rows keyed by normalized
// header. Short or long records are tolerated; extra cells are dropped.
// When two headers normalize to the same key the first non-empty cell wins.
func ParseCSV(text string) ([]domain.RawRow, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = NormalizeHeader(h)
	}

	var rows []domain.RawRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record %d: %w", len(rows)+1, err)
		}

		row := make(domain.RawRow, len(keys))
		for i, key := range keys {
			if i >= len(record) || key == "" {
				continue
			}
			value := strings.TrimSpace(record[i])
			if existing, ok := row[key]; ok && existing != "" {
				continue
			}
			row[key] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}
