package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the recommender's full configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Retry     RetryConfig     `yaml:"retry"`
	Breaker   BreakerConfig   `yaml:"circuit_breaker"`
	Storage   StorageConfig   `yaml:"storage"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"`
}

// ServerConfig contains HTTP server bind settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ExecutorConfig contains settings for reaching the remote fault executor.
type ExecutorConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// BaseURL returns the executor's base URL.
func (e ExecutorConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

// OptimizerConfig contains search-budget and proposer settings.
type OptimizerConfig struct {
	MaxTrials        int           `yaml:"max_trials"`
	ColdStartN       int           `yaml:"cold_start_n"`
	CandidatePoints  int           `yaml:"candidate_points"`
	IterationTimeout time.Duration `yaml:"iteration_timeout"`
}

// AnalyzerConfig contains the severity-scoring parameters that the serve
// command copies into every session's analyzer.Config when it launches the
// session's worker; a session has no way to supply its own.
type AnalyzerConfig struct {
	BaselineMS   float64 `yaml:"baseline_ms"`
	ThresholdMS  float64 `yaml:"threshold_ms"`
	WeightBug    float64 `yaml:"weight_bug"`
	WeightPerf   float64 `yaml:"weight_perf"`
	WeightStruct float64 `yaml:"weight_struct"`
}

// RetryConfig contains the executor client's backoff parameters.
type RetryConfig struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
	JitterPct   float64       `yaml:"jitter_percent"`
}

// BreakerConfig contains the executor client's circuit-breaker parameters.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

// StorageConfig contains session-store settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns a configuration populated with the recommender's
// operational defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Executor: ExecutorConfig{
			Host:    "localhost",
			Port:    8001,
			Timeout: 30 * time.Second,
		},
		Optimizer: OptimizerConfig{
			MaxTrials:        100,
			ColdStartN:       5,
			CandidatePoints:  1000,
			IterationTimeout: 10 * time.Minute,
		},
		Analyzer: AnalyzerConfig{
			BaselineMS:   100.0,
			ThresholdMS:  500.0,
			WeightBug:    1.0,
			WeightPerf:   1.0,
			WeightStruct: 1.0,
		},
		Retry: RetryConfig{
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    8 * time.Second,
			MaxAttempts: 5,
			JitterPct:   10.0,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Path: ".sessions",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load loads configuration from a YAML file, overlaying it on the defaults.
// A missing file is not an error — DefaultConfig() is used as the base.
// In both cases a handful of operationally hot settings can be overridden
// by environment variable regardless of what the file says.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides mirrors the teacher's PROMETHEUS_URL override: a small
// set of fields can be bumped without editing the config file on disk.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EXECUTOR_HOST"); v != "" {
		cfg.Executor.Host = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SESSION_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Optimizer.MaxTrials < 1 {
		return fmt.Errorf("optimizer.max_trials must be at least 1")
	}

	if c.Optimizer.ColdStartN < 0 {
		return fmt.Errorf("optimizer.cold_start_n cannot be negative")
	}

	if c.Analyzer.ThresholdMS <= c.Analyzer.BaselineMS {
		return fmt.Errorf("analyzer.threshold_ms must be greater than baseline_ms")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}

	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("circuit_breaker.failure_threshold must be at least 1")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	return nil
}
