package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/services/config"
	"github.com/de-tools/compliance-signals/pkg/services/enrich"
	"github.com/de-tools/compliance-signals/pkg/services/events"
	"github.com/de-tools/compliance-signals/pkg/services/metrics"
	"github.com/de-tools/compliance-signals/pkg/services/report"
	"github.com/de-tools/compliance-signals/pkg/services/signals"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite"
	"github.com/de-tools/compliance-signals/pkg/store/sqlite/runs"
)

const threeRowCSV = "Type,Name,State,Date effective from\n" +
	"Banning Order,Acme Care,NSW,2025-08-13 17:00\n" +
	",,VIC,\n" +
	"Compliance Notice,Beta Supports,QLD,March 2025\n"

type stubFetcher struct {
	text string
	err  error
}

func (s *stubFetcher) Fetch(context.Context) (string, error) { return s.text, s.err }
func (s *stubFetcher) URL() string                           { return "https://example.org/export.csv" }

type stubEmitter struct{ events []events.RunEvent }

func (s *stubEmitter) Emit(_ context.Context, e events.RunEvent) error {
	s.events = append(s.events, e)
	return nil
}

type stubPublisher struct {
	paths []string
	err   error
}

func (s *stubPublisher) Publish(_ context.Context, path string) error {
	s.paths = append(s.paths, path)
	return s.err
}

type fixture struct {
	out     string
	history runs.Store
	emitter *stubEmitter
	deps    Dependencies
}

func setupFixture(t *testing.T, fetcher *stubFetcher) *fixture {
	t.Helper()

	db, err := sqlite.NewDB(context.Background(), sqlite.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	history, err := runs.NewStore(db)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "docs", "signals.json")
	emitter := &stubEmitter{}

	return &fixture{
		out:     out,
		history: history,
		emitter: emitter,
		deps: Dependencies{
			Fetcher:  fetcher,
			Builder:  signals.NewBuilder(signals.NewPicker(config.DefaultFields()), signals.DefaultClassifier()),
			Enricher: enrich.New(nil, 0),
			Writer:   report.NewWriter(out),
			History:  history,
			Emitter:  emitter,
			Metrics:  metrics.NewRecorder("compliance_signals"),
		},
	}
}

func readOutput(t *testing.T, path string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestRunner_Signals_EndToEnd(t *testing.T) {
	f := setupFixture(t, &stubFetcher{text: threeRowCSV})
	runner, err := NewRunner(f.deps, Options{Mode: domain.ModeSignals, MaxRecords: 500})
	require.NoError(t, err)
	runner.newID = func() string { return "run-1" }

	res, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusSucceeded, res.Run.Status)
	assert.Equal(t, 3, res.Run.RowsRead)
	assert.Equal(t, 2, res.Run.RecordsWritten)
	assert.Equal(t, 1, res.Run.Risks[domain.RiskHigh])
	assert.Equal(t, 1, res.Run.Risks[domain.RiskMed])

	doc := readOutput(t, f.out)
	assert.EqualValues(t, 2, doc["count"])
	assert.EqualValues(t, 2, doc["total"])
	sigs := doc["signals"].([]any)
	require.Len(t, sigs, 2)
	first := sigs[0].(map[string]any)
	assert.Equal(t, "HIGH", first["risk"])
	assert.Equal(t, "2025-08-13", first["effective"])
	assert.Equal(t, "March 2025", sigs[1].(map[string]any)["effective"])

	latest, err := f.history.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.ID)
	assert.Equal(t, "succeeded", latest.Status)
	assert.Equal(t, 2, latest.RecordsWritten)

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, "succeeded", f.emitter.events[0].Status)
}

func TestRunner_CapsRecords(t *testing.T) {
	var b strings.Builder
	b.WriteString("Type,Name\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "Compliance Notice,Provider %d\n", i)
	}

	f := setupFixture(t, &stubFetcher{text: b.String()})
	runner, err := NewRunner(f.deps, Options{Mode: domain.ModeSignals, MaxRecords: 5})
	require.NoError(t, err)

	res, err := runner.Run(context.Background())
	require.NoError(t, err)

	doc := readOutput(t, f.out)
	assert.EqualValues(t, 5, doc["count"])
	assert.EqualValues(t, 12, doc["total"])
	assert.Len(t, doc["signals"], 5)
	assert.Equal(t, 5, res.Run.RecordsWritten)
}

func TestRunner_Enriched_WithoutKeyUsesFallback(t *testing.T) {
	f := setupFixture(t, &stubFetcher{text: threeRowCSV})
	runner, err := NewRunner(f.deps, Options{Mode: domain.ModeEnriched, EnrichMaxRows: 200, PreviewChars: 4})
	require.NoError(t, err)

	res, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Envelope)
	require.Len(t, res.Envelope.Items, 2)

	for _, item := range res.Envelope.Items {
		expected := enrich.Fallback(item.AffectedArea)
		assert.Equal(t, expected, item.Enrichment)
	}
	assert.Equal(t, "Banning Order: Acme Care", res.Envelope.Items[0].Title)
	assert.Equal(t, "NSW", res.Envelope.Items[0].AffectedArea)

	doc := readOutput(t, f.out)
	assert.Equal(t, "Type", doc["preview"])
	assert.NotContains(t, doc, "signals")
}

func TestRunner_FetchFailure(t *testing.T) {
	t.Run("lenient run logs and returns nil", func(t *testing.T) {
		f := setupFixture(t, &stubFetcher{err: errors.New("403 Forbidden")})
		runner, err := NewRunner(f.deps, Options{Mode: domain.ModeSignals})
		require.NoError(t, err)

		res, err := runner.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.RunStatusFetchFailed, res.Run.Status)
		require.NotNil(t, res.Run.Error)
		assert.Nil(t, res.Envelope)

		_, statErr := os.Stat(f.out)
		assert.True(t, os.IsNotExist(statErr))

		latest, err := f.history.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fetch_failed", latest.Status)
	})

	t.Run("strict run returns the error", func(t *testing.T) {
		f := setupFixture(t, &stubFetcher{err: errors.New("timeout")})
		runner, err := NewRunner(f.deps, Options{Mode: domain.ModeSignals, Strict: true})
		require.NoError(t, err)

		_, err = runner.Run(context.Background())
		assert.ErrorIs(t, err, ErrFetchFailed)
	})
}

func TestRunner_PublishFailureFailsRun(t *testing.T) {
	f := setupFixture(t, &stubFetcher{text: threeRowCSV})
	pub := &stubPublisher{err: errors.New("access denied")}
	f.deps.Publisher = pub

	runner, err := NewRunner(f.deps, Options{Mode: domain.ModeSignals})
	require.NoError(t, err)

	res, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.RunStatusFailed, res.Run.Status)
	assert.Equal(t, []string{f.out}, pub.paths)
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Dependencies{}, Options{Mode: domain.ModeSignals})
	assert.Error(t, err)

	f := setupFixture(t, &stubFetcher{})
	_, err = NewRunner(f.deps, Options{Mode: "bogus"})
	assert.Error(t, err)
}

func TestResult_Report(t *testing.T) {
	start := time.Date(2025, 8, 14, 1, 0, 0, 0, time.UTC)
	res := &Result{Run: domain.Run{
		ID: "run-1", Mode: domain.ModeSignals, Status: domain.RunStatusSucceeded,
		RecordsWritten: 2, Risks: domain.RiskCounts{domain.RiskHigh: 2},
		StartedAt: start, FinishedAt: start.Add(time.Minute),
	}}

	rep := res.Report()
	require.Len(t, rep.Sections, 2)
	assert.Equal(t, "succeeded", rep.Sections[0].Summary["status"])
	assert.Equal(t, 2, rep.Sections[1].Details[0].Value)
	assert.Equal(t, time.Minute, rep.Period.Duration())
}
