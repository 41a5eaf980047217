package domain

// Risk is the coarse severity bucket a compliance action falls into.
type Risk string

const (
	RiskHigh Risk = "HIGH"
	RiskMed  Risk = "MED"
	RiskLow  Risk = "LOW"
)

func (r Risk) Valid() bool {
	switch r {
	case RiskHigh, RiskMed, RiskLow:
		return true
	}
	return false
}

// RawRow maps a normalized header key to a trimmed cell value.
type RawRow map[string]string

// Signal is one normalized compliance action ready for the dashboard.
type Signal struct {
	Risk      Risk   `json:"risk"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Effective string `json:"effective"`
	End       string `json:"end"`
}
