package config

import (
	"time"

	"github.com/jonwraymond/agentops/observe"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Observe    observe.Config    `yaml:"observe"`
	Semaphores []SemaphoreConfig `yaml:"semaphores"`
	Breakers   []BreakerConfig   `yaml:"circuit_breakers"`
	RateLimits []RateLimitConfig `yaml:"rate_limits"`
	Retry      RetryConfig       `yaml:"retry"`
	Batch      BatchConfig       `yaml:"batch"`
	Agents     AgentsConfig      `yaml:"agents"`
	LLM        LLMConfig         `yaml:"llm"`
	Cache      CacheConfig       `yaml:"cache"`
	Recovery   RecoveryConfig    `yaml:"recovery"`
	Health     HealthConfig      `yaml:"health"`
}

// ServerConfig configures the HTTP listener for health, status and metrics.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SemaphoreConfig declares a named concurrency pool.
type SemaphoreConfig struct {
	Name           string        `yaml:"name"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// BreakerConfig declares a circuit breaker for a component.
type BreakerConfig struct {
	Component        string        `yaml:"component"`
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
	SuccessThreshold int           `yaml:"success_threshold"`
}

// RateLimitConfig declares a named token bucket.
type RateLimitConfig struct {
	Name    string        `yaml:"name"`
	Rate    float64       `yaml:"rate"`
	Burst   int           `yaml:"burst"`
	MaxWait time.Duration `yaml:"max_wait"`
}

// RetryConfig configures the default retry policy.
type RetryConfig struct {
	// Strategy is exponential or linear.
	Strategy   string        `yaml:"strategy"`
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Multiplier float64       `yaml:"multiplier"`
	Jitter     bool          `yaml:"jitter"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Size                 int `yaml:"size"`
	MaxConcurrentBatches int `yaml:"max_concurrent_batches"`
}

// AgentsConfig configures the agent runner.
type AgentsConfig struct {
	Pool          string        `yaml:"pool"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	Critical      []string      `yaml:"critical"`
}

// LLMConfig configures the language model clients.
type LLMConfig struct {
	// Provider is openai, anthropic or none.
	Provider string `yaml:"provider"`

	// Failover switches to the other configured provider when the primary
	// fails.
	Failover bool `yaml:"failover"`

	OpenAI      ProviderConfig `yaml:"openai"`
	Anthropic   ProviderConfig `yaml:"anthropic"`
	Temperature float64        `yaml:"temperature"`
	MaxTokens   int            `yaml:"max_tokens"`
	Timeout     time.Duration  `yaml:"timeout"`
	MaxRetries  int            `yaml:"max_retries"`
	Pool        string         `yaml:"pool"`
	RateLimit   string         `yaml:"rate_limit"`
}

// ProviderConfig holds the settings of one LLM provider. APIKey may be a
// secret reference.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Configured reports whether the provider has an API key.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

// CacheConfig configures the LLM response cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxTTL     time.Duration `yaml:"max_ttl"`
	MaxEntries int           `yaml:"max_entries"`

	// ProviderTTL overrides TTL per LLM client name. Negative disables
	// caching for that client.
	ProviderTTL map[string]time.Duration `yaml:"provider_ttl"`

	// RedisURL selects a shared Redis cache instead of the in-memory one.
	RedisURL string `yaml:"redis_url"`
}

// RecoveryConfig configures the error handler.
type RecoveryConfig struct {
	// ErrorLogPath receives the error log on shutdown when set.
	ErrorLogPath string `yaml:"error_log_path"`
}

// HealthConfig configures health checks.
type HealthConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MemoryWarning  float64       `yaml:"memory_warning"`
	MemoryCritical float64       `yaml:"memory_critical"`
	MemoryMaxAlloc uint64        `yaml:"memory_max_alloc"`
}

// Pool names used by Default.
const (
	PoolLLMCalls       = "llm_calls"
	PoolAgentExecution = "agent_execution"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: "agentops",
			Version:     "dev",
			Tracing:     observe.TracingConfig{Enabled: false, Exporter: "none", SamplePct: 1.0},
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Semaphores: []SemaphoreConfig{
			{Name: PoolLLMCalls, MaxConcurrent: 10, AcquireTimeout: 30 * time.Second},
			{Name: PoolAgentExecution, MaxConcurrent: 5, AcquireTimeout: 60 * time.Second},
		},
		Breakers: []BreakerConfig{
			{Component: "llm_client", FailureThreshold: 5, RecoveryTimeout: 60 * time.Second, SuccessThreshold: 2},
		},
		RateLimits: []RateLimitConfig{
			{Name: "llm", Rate: 10, Burst: 20, MaxWait: 30 * time.Second},
		},
		Retry: RetryConfig{
			Strategy:   "exponential",
			MaxRetries: 3,
			BaseDelay:  time.Second,
			MaxDelay:   60 * time.Second,
			Multiplier: 2,
			Jitter:     true,
		},
		Batch: BatchConfig{Size: 200, MaxConcurrentBatches: 3},
		Agents: AgentsConfig{
			Pool:          PoolAgentExecution,
			MaxConcurrent: 5,
			Timeout:       60 * time.Second,
			MaxRetries:    3,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Failover:    true,
			OpenAI:      ProviderConfig{Model: "gpt-4-turbo"},
			Anthropic:   ProviderConfig{Model: "claude-3-5-sonnet-latest"},
			Temperature: 0.1,
			MaxTokens:   4000,
			Timeout:     30 * time.Second,
			MaxRetries:  3,
			Pool:        PoolLLMCalls,
			RateLimit:   "llm",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        time.Hour,
			MaxTTL:     24 * time.Hour,
			MaxEntries: 1000,
		},
		Health: HealthConfig{
			Timeout:        10 * time.Second,
			MemoryWarning:  0.8,
			MemoryCritical: 0.95,
		},
	}
}
