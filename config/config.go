package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research engine
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Models     ModelsConfig     `mapstructure:"models"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Budget     BudgetConfig     `mapstructure:"budget"`
	Server     ServerConfig     `mapstructure:"server"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// OpenRouterConfig configures the completion endpoint and its retry policy.
type OpenRouterConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	MinWait           time.Duration `mapstructure:"min_wait"`
	MaxWait           time.Duration `mapstructure:"max_wait"`
	Referer           string        `mapstructure:"referer"`
	Title             string        `mapstructure:"title"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

func (o OpenRouterConfig) Validate() error {
	if strings.TrimSpace(o.BaseURL) == "" {
		return fmt.Errorf("openrouter.base_url required")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("openrouter.timeout must be > 0")
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("openrouter.max_attempts must be >= 1")
	}
	if o.MinWait < 0 || o.MaxWait < 0 {
		return fmt.Errorf("openrouter wait bounds cannot be negative")
	}
	if o.MaxWait < o.MinWait {
		return fmt.Errorf("openrouter.max_wait must be >= openrouter.min_wait")
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("openrouter.requests_per_second cannot be negative")
	}
	return nil
}

// ModelsConfig selects default models and extends the built-in catalog.
type ModelsConfig struct {
	Research string        `mapstructure:"research"`
	Analysis string        `mapstructure:"analysis"`
	Catalog  []ModelConfig `mapstructure:"catalog"`
}

// BuildCatalog merges configured entries over DefaultCatalog.
func (m ModelsConfig) BuildCatalog() Catalog {
	return DefaultCatalog().With(m.Catalog...)
}

func (m ModelsConfig) Validate() error {
	for _, entry := range m.Catalog {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	catalog := m.BuildCatalog()
	if _, err := catalog.Lookup(m.Research); err != nil {
		return fmt.Errorf("models.research: %w", err)
	}
	if _, err := catalog.Lookup(m.Analysis); err != nil {
		return fmt.Errorf("models.analysis: %w", err)
	}
	return nil
}

// PipelineConfig controls item counts and per-item concurrency.
type PipelineConfig struct {
	DefaultItems int            `mapstructure:"default_items"`
	MinItems     int            `mapstructure:"min_items"`
	MaxItems     int            `mapstructure:"max_items"`
	Parallelism  int            `mapstructure:"parallelism"`
	Snapshot     SnapshotConfig `mapstructure:"snapshot"`
}

// SnapshotConfig controls the optional website excerpt fed to ingestion.
type SnapshotConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Renderer string        `mapstructure:"renderer"` // http or browser
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// Normalize applies defaults for unset pipeline values.
func (p PipelineConfig) Normalize() PipelineConfig {
	if p.MinItems <= 0 {
		p.MinItems = 2
	}
	if p.MaxItems <= 0 {
		p.MaxItems = 5
	}
	if p.DefaultItems <= 0 {
		p.DefaultItems = 3
	}
	if p.Parallelism <= 0 {
		p.Parallelism = 1
	}
	p.Snapshot.Renderer = strings.ToLower(strings.TrimSpace(p.Snapshot.Renderer))
	if p.Snapshot.Renderer == "" {
		p.Snapshot.Renderer = "http"
	}
	if p.Snapshot.Timeout <= 0 {
		p.Snapshot.Timeout = 20 * time.Second
	}
	if p.Snapshot.MaxChars <= 0 {
		p.Snapshot.MaxChars = 6000
	}
	return p
}

func (p PipelineConfig) Validate() error {
	if p.MinItems > p.MaxItems {
		return fmt.Errorf("pipeline.min_items cannot exceed pipeline.max_items")
	}
	if p.DefaultItems < p.MinItems || p.DefaultItems > p.MaxItems {
		return fmt.Errorf("pipeline.default_items must be within [%d, %d]", p.MinItems, p.MaxItems)
	}
	switch p.Snapshot.Renderer {
	case "http", "browser":
	default:
		return fmt.Errorf("pipeline.snapshot.renderer must be http or browser, got %q", p.Snapshot.Renderer)
	}
	return nil
}

// BudgetConfig caps spend for a single run. Zero means unlimited.
type BudgetConfig struct {
	MaxCost        float64 `mapstructure:"max_cost"`
	MaxTokens      int64   `mapstructure:"max_tokens"`
	MaxTimeSeconds int64   `mapstructure:"max_time_seconds"`
}

func (b BudgetConfig) Validate() error {
	if b.MaxCost < 0 || b.MaxTokens < 0 || b.MaxTimeSeconds < 0 {
		return fmt.Errorf("budget limits cannot be negative")
	}
	return nil
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func (t TelemetryConfig) Validate() error {
	if t.MetricsPort < 0 {
		return fmt.Errorf("telemetry.metrics_port cannot be negative")
	}
	return nil
}

// StorageConfig contains storage configurations
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings for progress streams
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Stream   string        `mapstructure:"stream"`
	MaxLen   int64         `mapstructure:"max_len"`
}

// Enabled reports whether a Redis host has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	if strings.TrimSpace(r.Stream) == "" {
		return fmt.Errorf("storage.redis.stream required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.debug", false)

	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.timeout", 120*time.Second)
	v.SetDefault("openrouter.max_attempts", 3)
	v.SetDefault("openrouter.min_wait", 4*time.Second)
	v.SetDefault("openrouter.max_wait", 10*time.Second)
	v.SetDefault("openrouter.referer", "https://cognitive-resonance-engine.streamlit.app")
	v.SetDefault("openrouter.title", "Cognitive Resonance Engine")
	v.SetDefault("openrouter.requests_per_second", 0)

	v.SetDefault("models.research", DefaultResearchModel)
	v.SetDefault("models.analysis", DefaultAnalysisModel)

	v.SetDefault("pipeline.default_items", 3)
	v.SetDefault("pipeline.min_items", 2)
	v.SetDefault("pipeline.max_items", 5)
	v.SetDefault("pipeline.parallelism", 1)
	v.SetDefault("pipeline.snapshot.enabled", false)
	v.SetDefault("pipeline.snapshot.renderer", "http")
	v.SetDefault("pipeline.snapshot.timeout", 20*time.Second)
	v.SetDefault("pipeline.snapshot.max_chars", 6000)

	v.SetDefault("server.address", ":8080")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "resonance")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")

	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.stream", "resonance:progress")
	v.SetDefault("storage.redis.max_len", 10000)
	v.SetDefault("storage.redis.timeout", 5*time.Second)
}

// LoadConfig reads configuration from path (or the default search paths when
// empty), environment variables prefixed with RESONANCE_, and built-in defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("RESONANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	overrideFromEnv(&cfg)
	cfg.Pipeline = cfg.Pipeline.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.OpenRouter.APIKey = key
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	validators := []func() error{
		c.OpenRouter.Validate,
		c.Models.Validate,
		c.Pipeline.Validate,
		c.Budget.Validate,
		c.Telemetry.Validate,
		c.Storage.Redis.Validate,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}
