package signals

import (
	"regexp"
	"strings"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader maps a raw CSV header to its canonical snake_case key.
// It is total and idempotent.
func NormalizeHeader(header string) string {
	key := nonAlnum.ReplaceAllString(strings.ToLower(header), "_")
	return strings.Trim(key, "_")
}

// Picker resolves canonical fields against a row using ordered header aliases.
type Picker struct {
	aliases map[string][]string
}

// NewPicker normalizes every alias once, dropping duplicates while keeping order.
func NewPicker(fields map[string][]string) *Picker {
	p := &Picker{aliases: make(map[string][]string, len(fields))}
	for field, raw := range fields {
		seen := make(map[string]struct{}, len(raw))
		keys := make([]string, 0, len(raw))
		for _, alias := range raw {
			key := NormalizeHeader(alias)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		p.aliases[NormalizeHeader(field)] = keys
	}
	return p
}

// Pick returns the first non-empty value among the field's aliases, or "".
func (p *Picker) Pick(row domain.RawRow, field string) string {
	return PickFirst(row, p.aliases[field]...)
}

// Aliases returns the normalized alias keys for field.
func (p *Picker) Aliases(field string) []string {
	return p.aliases[field]
}

// PickFirst returns the first non-empty value among keys, or "".
func PickFirst(row domain.RawRow, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}
