package budget

import "fmt"

// Config caps the spend of a single research run. Zero means unlimited.
type Config struct {
	MaxCost        float64 `json:"max_cost,omitempty" mapstructure:"max_cost"`
	MaxTokens      int64   `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	MaxTimeSeconds int64   `json:"max_time_seconds,omitempty" mapstructure:"max_time_seconds"`
}

// Validate ensures the budget values are sane before use.
func (c Config) Validate() error {
	if c.MaxCost < 0 {
		return fmt.Errorf("max_cost cannot be negative")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens cannot be negative")
	}
	if c.MaxTimeSeconds < 0 {
		return fmt.Errorf("max_time_seconds cannot be negative")
	}
	return nil
}

// Merge overlays the non-zero limits of override onto base.
func Merge(base Config, override Config) Config {
	result := base
	if override.MaxCost > 0 {
		result.MaxCost = override.MaxCost
	}
	if override.MaxTokens > 0 {
		result.MaxTokens = override.MaxTokens
	}
	if override.MaxTimeSeconds > 0 {
		result.MaxTimeSeconds = override.MaxTimeSeconds
	}
	return result
}

// IsZero reports whether the config defines no limits.
func (c Config) IsZero() bool {
	return c.MaxCost <= 0 && c.MaxTokens <= 0 && c.MaxTimeSeconds <= 0
}
