package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "general:\n  log_level: debug\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.General.LogLevel)
	}
	if cfg.OpenRouter.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected base url %q", cfg.OpenRouter.BaseURL)
	}
	if cfg.OpenRouter.Timeout != 120*time.Second {
		t.Fatalf("expected 120s timeout, got %s", cfg.OpenRouter.Timeout)
	}
	if cfg.OpenRouter.MaxAttempts != 3 || cfg.OpenRouter.MinWait != 4*time.Second || cfg.OpenRouter.MaxWait != 10*time.Second {
		t.Fatalf("unexpected retry policy: %+v", cfg.OpenRouter)
	}
	if cfg.Models.Research != DefaultResearchModel || cfg.Models.Analysis != DefaultAnalysisModel {
		t.Fatalf("unexpected default models: %+v", cfg.Models)
	}
	if cfg.Pipeline.DefaultItems != 3 || cfg.Pipeline.MinItems != 2 || cfg.Pipeline.MaxItems != 5 {
		t.Fatalf("unexpected item bounds: %+v", cfg.Pipeline)
	}
	if cfg.Storage.Redis.Enabled() {
		t.Fatalf("expected redis disabled without host")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("RESONANCE_PIPELINE_PARALLELISM", "4")
	path := writeConfig(t, "openrouter:\n  api_key: from-file\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OpenRouter.APIKey != "sk-test" {
		t.Fatalf("expected env api key, got %q", cfg.OpenRouter.APIKey)
	}
	if cfg.Pipeline.Parallelism != 4 {
		t.Fatalf("expected parallelism 4, got %d", cfg.Pipeline.Parallelism)
	}
}

func TestLoadConfigRejectsUnknownAnalysisModel(t *testing.T) {
	path := writeConfig(t, "models:\n  analysis: acme/not-a-model\n")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("expected error for unknown model")
	}
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestLoadConfigCatalogExtension(t *testing.T) {
	path := writeConfig(t, `
models:
  analysis: acme/house-model
  catalog:
    - id: acme/house-model
      name: House Model
      input_price_per_million: 1
      output_price_per_million: 2
      max_tokens: 4096
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	m, err := cfg.Models.BuildCatalog().Lookup("acme/house-model")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if m.MaxTokens != 4096 || m.Name != "House Model" {
		t.Fatalf("unexpected model: %+v", m)
	}
}

func TestPipelineValidateBounds(t *testing.T) {
	p := PipelineConfig{DefaultItems: 7, MinItems: 2, MaxItems: 5}.Normalize()
	if err := p.Validate(); err == nil {
		t.Fatalf("expected default outside bounds to fail")
	}
	p = PipelineConfig{Snapshot: SnapshotConfig{Renderer: "carrier-pigeon"}}.Normalize()
	if err := p.Validate(); err == nil {
		t.Fatalf("expected unknown renderer to fail")
	}
}

func TestCalculateCost(t *testing.T) {
	catalog := DefaultCatalog()
	cases := []struct {
		model   string
		in, out int
	}{
		{"anthropic/claude-sonnet-4.5", 1200, 800},
		{"perplexity/sonar-deep-research", 1_000_000, 0},
		{"google/gemini-2.5-flash-preview-09-2025", 12345, 6789},
		{"openai/gpt-5-mini", 0, 0},
	}
	for _, tc := range cases {
		m := catalog[tc.model]
		want := float64(tc.in)/1e6*m.InputPricePerMillion + float64(tc.out)/1e6*m.OutputPricePerMillion
		got, err := catalog.CalculateCost(tc.model, tc.in, tc.out)
		if err != nil {
			t.Fatalf("CalculateCost(%s): %v", tc.model, err)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("%s: expected %v, got %v", tc.model, want, got)
		}
	}
	if _, err := catalog.CalculateCost("nope", 1, 1); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestAnalysisModelsExcludeWebSearch(t *testing.T) {
	for _, m := range DefaultCatalog().AnalysisModels() {
		if m.SupportsWebSearch {
			t.Fatalf("analysis list contains web search model %s", m.ID)
		}
	}
	research := DefaultCatalog().ResearchModels()
	if len(research) != 1 || research[0].ID != DefaultResearchModel {
		t.Fatalf("unexpected research models: %+v", research)
	}
}
