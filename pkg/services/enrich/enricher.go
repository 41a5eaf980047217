package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/services/signals"
)

const NationalArea = "National"

var (
	ErrNoJSON = errors.New("no JSON object in model response")

	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Enricher struct {
	gen     Generator
	timeout time.Duration
	limiter *rate.Limiter
}

// New returns an Enricher; a nil Generator makes every item the static fallback.
func New(gen Generator, timeout time.Duration) *Enricher {
	return &Enricher{gen: gen, timeout: timeout}
}

// WithRateLimit spaces model calls to at most perMinute per minute.
func (e *Enricher) WithRateLimit(perMinute int) *Enricher {
	if perMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return e
}

func (e *Enricher) Enabled() bool {
	return e.gen != nil
}

// Fallback is the static record used when no model is configured or a call fails.
func Fallback(state string) domain.Enrichment {
	area := strings.TrimSpace(state)
	if area == "" {
		area = NationalArea
	}
	return domain.Enrichment{
		ChangeType:         "Compliance action",
		AffectedService:    "NDIS supports and services",
		AffectedArea:       area,
		ImpactScore:        3,
		Why:                "Published on the NDIS Commission compliance actions register.",
		ActionForProviders: "Review the action and check whether it affects your organisation, workers or participants.",
	}
}

func BuildPrompt(title, raw string) string {
	var b strings.Builder
	b.WriteString("You summarise NDIS Quality and Safeguards Commission compliance actions for registered providers.\n")
	b.WriteString("Respond with a single JSON object and nothing else, using exactly these keys:\n")
	b.WriteString(`{"changeType": string, "affectedService": string, "affectedArea": string, ` +
		`"impactScore": integer from 1 (minor) to 5 (severe), "why": string, "actionForProviders": string}`)
	b.WriteString("\n\nTitle: ")
	b.WriteString(title)
	b.WriteString("\nRecord: ")
	b.WriteString(raw)
	b.WriteString("\n")
	return b.String()
}

// ExtractJSON returns the outermost brace-delimited span of text.
func ExtractJSON(text string) (string, error) {
	m := jsonObject.FindString(text)
	if m == "" {
		return "", ErrNoJSON
	}
	return m, nil
}

// Enrich calls the model once for a single row. No retries.
func (e *Enricher) Enrich(ctx context.Context, title, raw string) (domain.Enrichment, error) {
	if e.gen == nil {
		return domain.Enrichment{}, fmt.Errorf("enrichment is not configured")
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return domain.Enrichment{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	text, err := e.gen.Generate(callCtx, BuildPrompt(title, raw))
	if err != nil {
		return domain.Enrichment{}, err
	}

	obj, err := ExtractJSON(text)
	if err != nil {
		return domain.Enrichment{}, err
	}
	return parseEnrichment([]byte(obj))
}

type wireEnrichment struct {
	ChangeType         string          `json:"changeType"`
	AffectedService    string          `json:"affectedService"`
	AffectedArea       string          `json:"affectedArea"`
	ImpactScore        json.RawMessage `json:"impactScore"`
	Why                string          `json:"why"`
	ActionForProviders string          `json:"actionForProviders"`
}

// parseEnrichment accepts impactScore as a number or a numeric string.
func parseEnrichment(b []byte) (domain.Enrichment, error) {
	var w wireEnrichment
	if err := json.Unmarshal(b, &w); err != nil {
		return domain.Enrichment{}, fmt.Errorf("failed to parse model JSON: %w", err)
	}

	score, err := parseScore(w.ImpactScore)
	if err != nil {
		return domain.Enrichment{}, err
	}

	return domain.Enrichment{
		ChangeType:         strings.TrimSpace(w.ChangeType),
		AffectedService:    strings.TrimSpace(w.AffectedService),
		AffectedArea:       strings.TrimSpace(w.AffectedArea),
		ImpactScore:        score,
		Why:                strings.TrimSpace(w.Why),
		ActionForProviders: strings.TrimSpace(w.ActionForProviders),
	}, nil
}

func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(math.Round(f)), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("impactScore is neither a number nor a string: %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("impactScore %q is not numeric", s)
	}
	return int(math.Round(f)), nil
}

// Items enriches up to maxRows records sequentially and reports how many
// model calls failed. Failed rows get the static fallback.
func (e *Enricher) Items(ctx context.Context, records []signals.Record, maxRows int) ([]domain.EnrichedItem, int) {
	logger := zerolog.Ctx(ctx)
	records = signals.Cap(records, maxRows)

	items := make([]domain.EnrichedItem, 0, len(records))
	failures := 0
	for i, rec := range records {
		fallback := Fallback(rec.Signal.State)
		enrichment := fallback

		if e.Enabled() {
			raw, err := json.Marshal(rec.Row)
			if err != nil {
				raw = []byte("{}")
			}

			got, err := e.Enrich(ctx, rec.Title(), string(raw))
			if err != nil {
				failures++
				logger.Warn().Err(err).Int("row", i).Str("title", rec.Title()).Msg("enrichment failed, using fallback")
			} else {
				enrichment = got
				if enrichment.AffectedArea == "" {
					enrichment.AffectedArea = fallback.AffectedArea
				}
			}
		}

		items = append(items, domain.EnrichedItem{
			Enrichment: enrichment,
			Title:      rec.Title(),
			Link:       rec.Link,
		})
	}
	return items, failures
}
