package domain

// Enrichment is the structured summary produced by the generative model.
type Enrichment struct {
	ChangeType         string `json:"changeType"`
	AffectedService    string `json:"affectedService"`
	AffectedArea       string `json:"affectedArea"`
	ImpactScore        int    `json:"impactScore"`
	Why                string `json:"why"`
	ActionForProviders string `json:"actionForProviders"`
}

// EnrichedItem is an Enrichment plus the row it was produced for.
type EnrichedItem struct {
	Enrichment
	Title string `json:"title"`
	Link  string `json:"link"`
}
