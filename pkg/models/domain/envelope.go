package domain

import "encoding/json"

type Mode string

const (
	ModeSignals  Mode = "signals"
	ModeEnriched Mode = "enriched"
)

// Envelope is the top-level document written to the output file.
// Mode decides whether the records are emitted under "signals" or "items".
type Envelope struct {
	Mode       Mode           `json:"-"`
	UpdatedUTC string         `json:"updated_utc"`
	Count      int            `json:"count"`
	Total      int            `json:"total"`
	Signals    []Signal       `json:"signals,omitempty"`
	Items      []EnrichedItem `json:"items,omitempty"`
	Preview    string         `json:"preview,omitempty"`
}

type envelopeHeader struct {
	UpdatedUTC string `json:"updated_utc"`
	Count      int    `json:"count"`
	Total      int    `json:"total"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	header := envelopeHeader{UpdatedUTC: e.UpdatedUTC, Count: e.Count, Total: e.Total}

	if e.Mode == ModeEnriched {
		items := e.Items
		if items == nil {
			items = []EnrichedItem{}
		}
		return json.Marshal(struct {
			envelopeHeader
			Items   []EnrichedItem `json:"items"`
			Preview string         `json:"preview,omitempty"`
		}{header, items, e.Preview})
	}

	signals := e.Signals
	if signals == nil {
		signals = []Signal{}
	}
	return json.Marshal(struct {
		envelopeHeader
		Signals []Signal `json:"signals"`
		Preview string   `json:"preview,omitempty"`
	}{header, signals, e.Preview})
}
