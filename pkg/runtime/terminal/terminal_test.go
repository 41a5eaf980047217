package terminal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/runtime/terminal/commands"
	"github.com/de-tools/compliance-signals/pkg/services/config"
	"github.com/de-tools/compliance-signals/pkg/services/pipeline"
)

type stubRunner struct {
	res *pipeline.Result
	err error
}

func (s *stubRunner) Run(context.Context) (*pipeline.Result, error) { return s.res, s.err }

func newTestCLI(factory commands.RunnerFactory) (*CLI, *bytes.Buffer, *bytes.Buffer) {
	var out, logs bytes.Buffer
	cli := NewCLI(Options{Factory: factory, Output: &out, LogOutput: &logs})
	return cli, &out, &logs
}

func succeededResult() *pipeline.Result {
	start := time.Date(2025, 8, 14, 1, 0, 0, 0, time.UTC)
	return &pipeline.Result{Run: domain.Run{
		ID: "run-1", Mode: domain.ModeSignals, Status: domain.RunStatusSucceeded,
		RecordsWritten: 2, Risks: domain.RiskCounts{domain.RiskHigh: 1, domain.RiskMed: 1},
		StartedAt: start, FinishedAt: start.Add(time.Second),
	}}
}

func TestCLI_Run_AppliesFlagOverrides(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")

	var got *config.Config
	factory := func(_ context.Context, cfg *config.Config) (commands.Runner, func(), error) {
		got = cfg
		return &stubRunner{res: succeededResult()}, func() {}, nil
	}

	cli, stdout, _ := newTestCLI(factory)
	cli.SetArgs([]string{"run", "--mode", "enriched", "-o", out, "--max-records", "10", "--strict", "--format", "text"})
	require.NoError(t, cli.Execute(context.Background()))

	require.NotNil(t, got)
	assert.Equal(t, domain.ModeEnriched, got.Mode)
	assert.Equal(t, out, got.Output.Path)
	assert.Equal(t, 10, got.Output.MaxRecords)
	assert.True(t, got.Strict)
	assert.Contains(t, stdout.String(), "Compliance signals run (1s)")
	assert.Contains(t, stdout.String(), "- HIGH: 1 records")
}

func TestCLI_Run_Errors(t *testing.T) {
	t.Run("invalid mode", func(t *testing.T) {
		cli, _, _ := newTestCLI(nil)
		cli.SetArgs([]string{"run", "--mode", "bogus"})
		assert.Error(t, cli.Execute(context.Background()))
	})

	t.Run("runner error is returned after the report", func(t *testing.T) {
		res := succeededResult()
		res.Run.Status = domain.RunStatusFetchFailed
		factory := func(context.Context, *config.Config) (commands.Runner, func(), error) {
			return &stubRunner{res: res, err: pipeline.ErrFetchFailed}, func() {}, nil
		}

		cli, stdout, _ := newTestCLI(factory)
		cli.SetArgs([]string{"run"})
		err := cli.Execute(context.Background())
		assert.ErrorIs(t, err, pipeline.ErrFetchFailed)
		assert.Contains(t, stdout.String(), "fetch_failed")
	})

	t.Run("factory error runs cleanup", func(t *testing.T) {
		cleaned := false
		factory := func(context.Context, *config.Config) (commands.Runner, func(), error) {
			return nil, func() { cleaned = true }, errors.New("no bucket")
		}

		cli, _, _ := newTestCLI(factory)
		cli.SetArgs([]string{"run", "-q"})
		assert.ErrorContains(t, cli.Execute(context.Background()), "no bucket")
		assert.True(t, cleaned)
	})

	t.Run("unknown format", func(t *testing.T) {
		cli, _, _ := newTestCLI(nil)
		cli.SetArgs([]string{"run", "--format", "xml"})
		assert.ErrorContains(t, cli.Execute(context.Background()), "xml")
	})

	t.Run("bad log level", func(t *testing.T) {
		cli, _, _ := newTestCLI(nil)
		cli.SetArgs([]string{"--log-level", "loud", "normalize-header", "x"})
		assert.Error(t, cli.Execute(context.Background()))
	})
}

func TestCLI_Classify(t *testing.T) {
	cli, stdout, _ := newTestCLI(nil)
	cli.SetArgs([]string{"classify", "Banning Order", "Compliance Notice", "Newsletter"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Equal(t, "HIGH\tBanning Order\nMED\tCompliance Notice\nLOW\tNewsletter\n", stdout.String())
}

func TestCLI_Classify_ConfigRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
risk:
  rules:
    - risk: HIGH
      keywords: ["newsletter"]
`), 0o644))

	cli, stdout, _ := newTestCLI(nil)
	cli.SetArgs([]string{"--config", path, "classify", "Newsletter"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Equal(t, "HIGH\tNewsletter\n", stdout.String())
}

func TestCLI_NormalizeHeader(t *testing.T) {
	cli, stdout, _ := newTestCLI(nil)
	cli.SetArgs([]string{"normalize-header", "Date effective from", "  Provider Name  "})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Equal(t, "date_effective_from\nprovider_name\n", stdout.String())
}

func TestCLI_Config(t *testing.T) {
	t.Setenv("SIGNALS_OUTPUT_PATH", "public/signals.json")

	cli, stdout, _ := newTestCLI(nil)
	cli.SetArgs([]string{"config"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Contains(t, stdout.String(), "path: public/signals.json")
	assert.Contains(t, stdout.String(), "mode: signals")
}

func TestCLI_LogsGoToLogOutput(t *testing.T) {
	factory := func(ctx context.Context, _ *config.Config) (commands.Runner, func(), error) {
		zerolog.Ctx(ctx).Info().Msg("factory called")
		return &stubRunner{res: succeededResult()}, func() {}, nil
	}

	cli, stdout, logs := newTestCLI(factory)
	cli.SetArgs([]string{"--pretty", "run", "-q"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Empty(t, stdout.String())
	assert.Contains(t, logs.String(), "factory called")
}

func TestCLI_ConfigProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte("[DEFAULT]\ntype = gemini\napi_key = k\n\n[publisher]\ntype = aws\nregion = ap-southeast-2\n"), 0o600))
	t.Setenv("SIGNALS_ENRICH_CREDENTIALS_FILE", path)

	cli, stdout, _ := newTestCLI(nil)
	cli.SetArgs([]string{"config", "--profiles"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Equal(t, "* gemini:DEFAULT\n  aws:publisher\n", stdout.String())
}

func TestCLI_ConfigProfiles_NoCredentialsFile(t *testing.T) {
	t.Setenv("SIGNALS_ENRICH_CREDENTIALS_FILE", "")

	cli, _, _ := newTestCLI(nil)
	cli.SetArgs([]string{"config", "--profiles"})
	err := cli.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials_file")
}
