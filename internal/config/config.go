package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the aisearch API configuration.
type Config struct {
	HTTP            HTTPConfig            `yaml:"http"`
	Database        DatabaseConfig        `yaml:"database"`
	Catalog         CatalogConfig         `yaml:"catalog"`
	AI              AIConfig              `yaml:"ai"`
	Search          SearchConfig          `yaml:"search"`
	Recommendations RecommendationsConfig `yaml:"recommendations"`
	RateLimit       RateLimitConfig       `yaml:"rate_limit"`
	Storage         StorageConfig         `yaml:"storage"`
	Logging         LoggingConfig         `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the Redis connection for the preference store.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig holds the product catalog service settings.
type CatalogConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// AIConfig holds the language-understanding service settings.
type AIConfig struct {
	BaseURL       string  `yaml:"base_url"`
	APIKey        string  `yaml:"api_key"`
	Model         string  `yaml:"model"`
	TimeoutSec    int     `yaml:"timeout_sec"`
	MaxRetries    int     `yaml:"max_retries"`
	MinConfidence float64 `yaml:"min_confidence"`
	// FallbackOnError degrades to baseline retrieval instead of failing when
	// the AI path is unavailable or below the confidence floor.
	FallbackOnError *bool `yaml:"fallback_on_error"`
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	MaxCandidates int `yaml:"max_candidates"`
	DefaultLimit  int `yaml:"default_limit"`
	MaxLimit      int `yaml:"max_limit"`
	CacheTTLSec   int `yaml:"cache_ttl_sec"`
}

// RecommendationsConfig holds recommendation engine settings.
type RecommendationsConfig struct {
	SimilarLimit        int     `yaml:"similar_limit"`
	FrequentlyBoughtMax int     `yaml:"frequently_bought_max"`
	CompleteTheLookMax  int     `yaml:"complete_the_look_max"`
	HomepageSections    int     `yaml:"homepage_sections"`
	ProductsPerSection  int     `yaml:"products_per_section"`
	MinConfidence       float64 `yaml:"min_confidence"`
	BundleDiscount      float64 `yaml:"bundle_discount"`
	CacheTTLSec         int     `yaml:"cache_ttl_sec"`
}

// RateLimitConfig holds per-minute allowances per operation class.
type RateLimitConfig struct {
	SearchesPerMinute        int `yaml:"searches_per_minute"`
	ComplexSearchesPerMinute int `yaml:"complex_searches_per_minute"`
	RecommendationsPerMinute int `yaml:"recommendations_per_minute"`
}

// StorageConfig holds key-value storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// FallbackEnabled reports whether baseline fallback is on (default true).
func (c *Config) FallbackEnabled() bool {
	return c.AI.FallbackOnError == nil || *c.AI.FallbackOnError
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 35
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalog.TimeoutSec <= 0 {
		c.Catalog.TimeoutSec = 10
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o"
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = 30
	}
	if c.AI.MaxRetries < 0 {
		c.AI.MaxRetries = 0
	} else if c.AI.MaxRetries == 0 {
		c.AI.MaxRetries = 2
	}
	if c.AI.MinConfidence <= 0 {
		c.AI.MinConfidence = 0.3
	}
	if c.Search.MaxCandidates <= 0 {
		c.Search.MaxCandidates = 100
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 50
	}
	if c.Search.CacheTTLSec <= 0 {
		c.Search.CacheTTLSec = 300
	}
	if c.Recommendations.SimilarLimit <= 0 {
		c.Recommendations.SimilarLimit = 6
	}
	if c.Recommendations.FrequentlyBoughtMax <= 0 {
		c.Recommendations.FrequentlyBoughtMax = 3
	}
	if c.Recommendations.CompleteTheLookMax <= 0 {
		c.Recommendations.CompleteTheLookMax = 4
	}
	if c.Recommendations.HomepageSections <= 0 {
		c.Recommendations.HomepageSections = 3
	}
	if c.Recommendations.ProductsPerSection <= 0 {
		c.Recommendations.ProductsPerSection = 8
	}
	if c.Recommendations.MinConfidence <= 0 {
		c.Recommendations.MinConfidence = 0.5
	}
	if c.Recommendations.BundleDiscount <= 0 {
		c.Recommendations.BundleDiscount = 0.10
	}
	if c.Recommendations.CacheTTLSec <= 0 {
		c.Recommendations.CacheTTLSec = 600
	}
	if c.RateLimit.SearchesPerMinute <= 0 {
		c.RateLimit.SearchesPerMinute = 60
	}
	if c.RateLimit.ComplexSearchesPerMinute <= 0 {
		c.RateLimit.ComplexSearchesPerMinute = 10
	}
	if c.RateLimit.RecommendationsPerMinute <= 0 {
		c.RateLimit.RecommendationsPerMinute = 120
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "aisearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if c.AI.BaseURL == "" {
		return fmt.Errorf("ai.base_url is required")
	}
	if c.AI.MinConfidence < 0 || c.AI.MinConfidence > 1 {
		return fmt.Errorf("ai.min_confidence must be between 0 and 1, got %v", c.AI.MinConfidence)
	}
	if c.Recommendations.MinConfidence < 0 || c.Recommendations.MinConfidence > 1 {
		return fmt.Errorf("recommendations.min_confidence must be between 0 and 1, got %v",
			c.Recommendations.MinConfidence)
	}
	if c.Recommendations.BundleDiscount < 0 || c.Recommendations.BundleDiscount >= 1 {
		return fmt.Errorf("recommendations.bundle_discount must be in [0, 1), got %v",
			c.Recommendations.BundleDiscount)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
