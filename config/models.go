package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownModel is returned when a model identifier is not in the catalog.
var ErrUnknownModel = errors.New("unknown model")

const (
	DefaultResearchModel = "perplexity/sonar-deep-research"
	DefaultAnalysisModel = "anthropic/claude-sonnet-4.5"
)

// ModelConfig describes one model reachable through OpenRouter.
type ModelConfig struct {
	ID                    string  `mapstructure:"id" json:"id"`
	Name                  string  `mapstructure:"name" json:"name"`
	Provider              string  `mapstructure:"provider" json:"provider"`
	InputPricePerMillion  float64 `mapstructure:"input_price_per_million" json:"input_price_per_million"`
	OutputPricePerMillion float64 `mapstructure:"output_price_per_million" json:"output_price_per_million"`
	MaxTokens             int     `mapstructure:"max_tokens" json:"max_tokens"`
	Description           string  `mapstructure:"description" json:"description"`
	SupportsWebSearch     bool    `mapstructure:"supports_web_search" json:"supports_web_search"`
}

func (m ModelConfig) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("models.catalog: id required")
	}
	if m.InputPricePerMillion < 0 || m.OutputPricePerMillion < 0 {
		return fmt.Errorf("models.catalog[%s]: prices cannot be negative", m.ID)
	}
	if m.MaxTokens <= 0 {
		return fmt.Errorf("models.catalog[%s]: max_tokens must be > 0", m.ID)
	}
	return nil
}

// Catalog maps model identifiers to their pricing and limits.
type Catalog map[string]ModelConfig

// DefaultCatalog returns the built-in set of models.
func DefaultCatalog() Catalog {
	models := []ModelConfig{
		{
			ID:                    "perplexity/sonar-deep-research",
			Name:                  "Perplexity Sonar Deep Research",
			Provider:              "perplexity",
			InputPricePerMillion:  5.00,
			OutputPricePerMillion: 5.00,
			MaxTokens:             8192,
			Description:           "Specialized for web research and information gathering",
			SupportsWebSearch:     true,
		},
		{
			ID:                    "anthropic/claude-sonnet-4.5",
			Name:                  "Claude Sonnet 4.5",
			Provider:              "anthropic",
			InputPricePerMillion:  3.00,
			OutputPricePerMillion: 15.00,
			MaxTokens:             8192,
			Description:           "Advanced reasoning and analysis",
		},
		{
			ID:                    "google/gemini-2.5-flash-preview-09-2025",
			Name:                  "Gemini 2.5 Flash Preview",
			Provider:              "google",
			InputPricePerMillion:  0.075,
			OutputPricePerMillion: 0.30,
			MaxTokens:             8192,
			Description:           "Fast and cost-effective",
		},
		{
			ID:                    "openai/gpt-5-mini",
			Name:                  "GPT-5 Mini",
			Provider:              "openai",
			InputPricePerMillion:  0.15,
			OutputPricePerMillion: 0.60,
			MaxTokens:             16384,
			Description:           "Efficient general-purpose model",
		},
		{
			ID:                    "openai/gpt-4.1",
			Name:                  "GPT-4.1",
			Provider:              "openai",
			InputPricePerMillion:  2.00,
			OutputPricePerMillion: 8.00,
			MaxTokens:             8192,
			Description:           "High-quality reasoning and generation",
		},
		{
			ID:                    "x-ai/grok-4.1-fast",
			Name:                  "Grok 4.1 Fast",
			Provider:              "x-ai",
			InputPricePerMillion:  2.00,
			OutputPricePerMillion: 8.00,
			MaxTokens:             8192,
			Description:           "Fast inference with strong reasoning",
		},
	}
	c := make(Catalog, len(models))
	for _, m := range models {
		c[m.ID] = m
	}
	return c
}

// With returns a copy of the catalog with extra entries added or replaced.
func (c Catalog) With(extra ...ModelConfig) Catalog {
	out := make(Catalog, len(c)+len(extra))
	for k, v := range c {
		out[k] = v
	}
	for _, m := range extra {
		out[m.ID] = m
	}
	return out
}

// Lookup resolves a model identifier.
func (c Catalog) Lookup(id string) (ModelConfig, error) {
	m, ok := c[id]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return m, nil
}

// CalculateCost prices a request from its token counts using per-million rates.
func (c Catalog) CalculateCost(id string, inputTokens, outputTokens int) (float64, error) {
	m, err := c.Lookup(id)
	if err != nil {
		return 0, err
	}
	in := float64(inputTokens) / 1_000_000 * m.InputPricePerMillion
	out := float64(outputTokens) / 1_000_000 * m.OutputPricePerMillion
	return in + out, nil
}

// IDs lists every model identifier in lexical order.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AnalysisModels returns the models usable for analysis stages (no web search).
func (c Catalog) AnalysisModels() []ModelConfig {
	var out []ModelConfig
	for _, id := range c.IDs() {
		if m := c[id]; !m.SupportsWebSearch {
			out = append(out, m)
		}
	}
	return out
}

// ResearchModels returns the web-search capable models.
func (c Catalog) ResearchModels() []ModelConfig {
	var out []ModelConfig
	for _, id := range c.IDs() {
		if m := c[id]; m.SupportsWebSearch {
			out = append(out, m)
		}
	}
	return out
}
