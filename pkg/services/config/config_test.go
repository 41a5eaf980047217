package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLoad_NoFile_UsesDefaults(t *testing.T) {
	// Given
	t.Setenv("GEMINI_API_KEY", "")

	// When
	cfg, err := Load("")

	// Then
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Mode != domain.ModeSignals {
		t.Errorf("expected Mode=signals, got %s", cfg.Mode)
	}
	if cfg.Source.URL != DefaultSourceURL {
		t.Errorf("expected default source url, got %s", cfg.Source.URL)
	}
	if cfg.Source.Timeout != 60*time.Second {
		t.Errorf("expected Timeout=60s, got %s", cfg.Source.Timeout)
	}
	if cfg.Output.Path != DefaultOutputPath {
		t.Errorf("expected Output.Path=%s, got %s", DefaultOutputPath, cfg.Output.Path)
	}
	if cfg.Output.MaxRecords != 500 {
		t.Errorf("expected MaxRecords=500, got %d", cfg.Output.MaxRecords)
	}
	if cfg.Enrich.MaxRows != 200 {
		t.Errorf("expected Enrich.MaxRows=200, got %d", cfg.Enrich.MaxRows)
	}
	if len(cfg.Fields["type"]) == 0 {
		t.Error("expected default type aliases")
	}
	if len(cfg.Risk.Rules) != 2 {
		t.Errorf("expected 2 default risk rules, got %d", len(cfg.Risk.Rules))
	}
}

func TestLoad_ValidYAML_OverridesDefaults(t *testing.T) {
	// Given
	path := writeFile(t, "signals.yaml", `mode: enriched
source:
  url: "http://example.test/export"
  timeout: 5s
output:
  path: "public/signals.json"
  max_records: 10
fields:
  type: ["Kind"]
  name: ["Who"]
risk:
  rules:
    - risk: HIGH
      keywords: ["ban"]
`)

	// When
	cfg, err := Load(path)

	// Then
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Mode != domain.ModeEnriched {
		t.Errorf("expected Mode=enriched, got %s", cfg.Mode)
	}
	if cfg.Source.URL != "http://example.test/export" {
		t.Errorf("unexpected url %s", cfg.Source.URL)
	}
	if cfg.Source.Timeout != 5*time.Second {
		t.Errorf("expected Timeout=5s, got %s", cfg.Source.Timeout)
	}
	if cfg.Output.MaxRecords != 10 {
		t.Errorf("expected MaxRecords=10, got %d", cfg.Output.MaxRecords)
	}
	if got := cfg.Fields["type"]; len(got) != 1 || got[0] != "Kind" {
		t.Errorf("expected type aliases [Kind], got %v", got)
	}
	if len(cfg.Risk.Rules) != 1 || cfg.Risk.Rules[0].Risk != domain.RiskHigh {
		t.Errorf("unexpected risk rules %+v", cfg.Risk.Rules)
	}
}

func TestLoad_PartialFieldsOverride_KeepsOtherDefaults(t *testing.T) {
	// Given
	path := writeFile(t, "signals.yaml", "fields:\n  type: [\"Type\", \"Kind\"]\n")
	defaults := DefaultFields()

	// When
	cfg, err := Load(path)

	// Then
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := cfg.Fields["type"]; len(got) != 2 || got[0] != "Type" || got[1] != "Kind" {
		t.Errorf("expected type aliases [Type Kind], got %v", got)
	}
	for _, field := range []string{"name", "state", "effective", "end", "link"} {
		if got := cfg.Fields[field]; len(got) != len(defaults[field]) {
			t.Errorf("expected default aliases for %s, got %v", field, got)
		}
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// Given
	path := writeFile(t, "signals.yaml", "output:\n  path: from-file.json\n")
	t.Setenv("SIGNALS_OUTPUT_PATH", "from-env.json")
	t.Setenv("GEMINI_API_KEY", "gk-123")

	// When
	cfg, err := Load(path)

	// Then
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Output.Path != "from-env.json" {
		t.Errorf("expected env override, got %s", cfg.Output.Path)
	}
	if cfg.Enrich.APIKey != "gk-123" {
		t.Errorf("expected api key from GEMINI_API_KEY, got %q", cfg.Enrich.APIKey)
	}
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	// Given
	path := writeFile(t, "bad.yaml", "mode: signals: bad")

	// When
	_, err := Load(path)

	// Then
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestLoad_UnknownMode_ReturnsError(t *testing.T) {
	// Given
	path := writeFile(t, "mode.yaml", "mode: everything\n")

	// When
	_, err := Load(path)

	// Then
	if err == nil {
		t.Error("expected error for unsupported mode, got nil")
	}
}

func TestLoad_UnknownRiskBucket_ReturnsError(t *testing.T) {
	// Given
	path := writeFile(t, "risk.yaml", "risk:\n  rules:\n    - risk: CRITICAL\n      keywords: [x]\n")

	// When
	_, err := Load(path)

	// Then
	if err == nil {
		t.Error("expected error for unsupported risk bucket, got nil")
	}
}
