package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/jonwraymond/agentops/faults"
	"github.com/jonwraymond/agentops/secret"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGENTOPS"

// Load reads the YAML file at path over Default, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, configError("failed to read config file", err)
		}
		expanded, err := secret.ExpandEnvStrict(string(data))
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, configError("failed to parse config file", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOverrides lists the settings that can be changed from the
// environment. Each is read from AGENTOPS_<tag>, falling back to the bare
// tag, so OPENAI_API_KEY works as well as AGENTOPS_OPENAI_API_KEY.
type envOverrides struct {
	ServerAddr          string        `envconfig:"SERVER_ADDR"`
	ServiceName         string        `envconfig:"SERVICE_NAME"`
	LogLevel            string        `envconfig:"LOG_LEVEL"`
	MetricsExporter     string        `envconfig:"METRICS_EXPORTER"`
	TracingExporter     string        `envconfig:"TRACING_EXPORTER"`
	TracingEndpoint     string        `envconfig:"TRACING_ENDPOINT"`
	LLMProvider         string        `envconfig:"LLM_PROVIDER"`
	LLMFailover         bool          `envconfig:"LLM_FAILOVER"`
	LLMTimeout          time.Duration `envconfig:"LLM_TIMEOUT"`
	LLMMaxRetries       int           `envconfig:"LLM_MAX_RETRIES"`
	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel         string        `envconfig:"OPENAI_MODEL"`
	AnthropicAPIKey     string        `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel      string        `envconfig:"ANTHROPIC_MODEL"`
	CacheEnabled        bool          `envconfig:"CACHE_ENABLED"`
	CacheTTL            time.Duration `envconfig:"CACHE_TTL"`
	RedisURL            string        `envconfig:"REDIS_URL"`
	MaxConcurrentAgents int           `envconfig:"MAX_CONCURRENT_AGENTS"`
	AgentTimeout        time.Duration `envconfig:"AGENT_TIMEOUT"`
	ErrorLogPath        string        `envconfig:"ERROR_LOG_PATH"`
}

func applyEnv(cfg *Config) error {
	o := envOverrides{
		ServerAddr:          cfg.Server.Addr,
		ServiceName:         cfg.Observe.ServiceName,
		LogLevel:            cfg.Observe.Logging.Level,
		MetricsExporter:     cfg.Observe.Metrics.Exporter,
		TracingExporter:     cfg.Observe.Tracing.Exporter,
		TracingEndpoint:     cfg.Observe.Tracing.Endpoint,
		LLMProvider:         cfg.LLM.Provider,
		LLMFailover:         cfg.LLM.Failover,
		LLMTimeout:          cfg.LLM.Timeout,
		LLMMaxRetries:       cfg.LLM.MaxRetries,
		OpenAIAPIKey:        cfg.LLM.OpenAI.APIKey,
		OpenAIModel:         cfg.LLM.OpenAI.Model,
		AnthropicAPIKey:     cfg.LLM.Anthropic.APIKey,
		AnthropicModel:      cfg.LLM.Anthropic.Model,
		CacheEnabled:        cfg.Cache.Enabled,
		CacheTTL:            cfg.Cache.TTL,
		RedisURL:            cfg.Cache.RedisURL,
		MaxConcurrentAgents: cfg.Agents.MaxConcurrent,
		AgentTimeout:        cfg.Agents.Timeout,
		ErrorLogPath:        cfg.Recovery.ErrorLogPath,
	}
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return configError("failed to load environment overrides", err)
	}

	cfg.Server.Addr = o.ServerAddr
	cfg.Observe.ServiceName = o.ServiceName
	cfg.Observe.Logging.Level = o.LogLevel
	cfg.Observe.Metrics.Exporter = o.MetricsExporter
	cfg.Observe.Tracing.Exporter = o.TracingExporter
	cfg.Observe.Tracing.Endpoint = o.TracingEndpoint
	if o.TracingExporter != "" && o.TracingExporter != "none" {
		cfg.Observe.Tracing.Enabled = true
	}
	cfg.LLM.Provider = o.LLMProvider
	cfg.LLM.Failover = o.LLMFailover
	cfg.LLM.Timeout = o.LLMTimeout
	cfg.LLM.MaxRetries = o.LLMMaxRetries
	cfg.LLM.OpenAI.APIKey = o.OpenAIAPIKey
	cfg.LLM.OpenAI.Model = o.OpenAIModel
	cfg.LLM.Anthropic.APIKey = o.AnthropicAPIKey
	cfg.LLM.Anthropic.Model = o.AnthropicModel
	cfg.Cache.Enabled = o.CacheEnabled
	cfg.Cache.TTL = o.CacheTTL
	cfg.Cache.RedisURL = o.RedisURL
	cfg.Agents.MaxConcurrent = o.MaxConcurrentAgents
	cfg.Agents.Timeout = o.AgentTimeout
	cfg.Recovery.ErrorLogPath = o.ErrorLogPath
	return nil
}

// ResolveSecrets replaces secret references in the provider API keys.
func (c *Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) error {
	return r.ResolveInPlace(ctx, &c.LLM.OpenAI.APIKey, &c.LLM.Anthropic.APIKey, &c.Cache.RedisURL)
}

// Validate reports every invalid setting, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field string, value any, msg string) {
		errs = append(errs, faults.DataValidation(field, value, field+": "+msg,
			faults.WithCategory(faults.CategoryConfiguration),
			faults.WithComponent("config"),
		))
	}

	if c.Server.Addr == "" {
		invalid("server.addr", c.Server.Addr, "listen address is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		invalid("server.shutdown_timeout", c.Server.ShutdownTimeout, "must be positive")
	}
	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, configError("invalid observe section", err))
	}

	pools := make(map[string]bool, len(c.Semaphores))
	for i, s := range c.Semaphores {
		field := fmt.Sprintf("semaphores[%d]", i)
		switch {
		case s.Name == "":
			invalid(field+".name", s.Name, "pool name is required")
		case pools[s.Name]:
			invalid(field+".name", s.Name, "duplicate pool name")
		}
		pools[s.Name] = true
		if s.MaxConcurrent < 1 {
			invalid(field+".max_concurrent", s.MaxConcurrent, "must be at least 1")
		}
		if s.AcquireTimeout < 0 {
			invalid(field+".acquire_timeout", s.AcquireTimeout, "must not be negative")
		}
	}

	for i, b := range c.Breakers {
		field := fmt.Sprintf("circuit_breakers[%d]", i)
		if b.Component == "" {
			invalid(field+".component", b.Component, "component is required")
		}
		if b.FailureThreshold < 0 || b.SuccessThreshold < 0 {
			invalid(field, b.FailureThreshold, "thresholds must not be negative")
		}
	}

	limits := make(map[string]bool, len(c.RateLimits))
	for i, r := range c.RateLimits {
		field := fmt.Sprintf("rate_limits[%d]", i)
		if r.Name == "" {
			invalid(field+".name", r.Name, "limiter name is required")
		}
		limits[r.Name] = true
		if r.Rate < 0 || r.Burst < 0 {
			invalid(field, r.Rate, "rate and burst must not be negative")
		}
	}

	switch c.Retry.Strategy {
	case "", "exponential", "linear":
	default:
		invalid("retry.strategy", c.Retry.Strategy, "must be exponential or linear")
	}
	if c.Retry.MaxRetries < 0 {
		invalid("retry.max_retries", c.Retry.MaxRetries, "must not be negative")
	}

	if c.Batch.Size < 0 || c.Batch.MaxConcurrentBatches < 0 {
		invalid("batch", c.Batch.Size, "sizes must not be negative")
	}

	if c.Agents.Pool != "" && !pools[c.Agents.Pool] {
		invalid("agents.pool", c.Agents.Pool, "pool is not declared in semaphores")
	}

	switch c.LLM.Provider {
	case "none", "":
	case "openai", "anthropic":
		if c.LLM.Pool != "" && !pools[c.LLM.Pool] {
			invalid("llm.pool", c.LLM.Pool, "pool is not declared in semaphores")
		}
		if c.LLM.RateLimit != "" && !limits[c.LLM.RateLimit] {
			invalid("llm.rate_limit", c.LLM.RateLimit, "limiter is not declared in rate_limits")
		}
	default:
		invalid("llm.provider", c.LLM.Provider, "must be openai, anthropic or none")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		invalid("llm.temperature", c.LLM.Temperature, "must be between 0 and 2")
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		invalid("cache.ttl", c.Cache.TTL, "must be positive when the cache is enabled")
	}

	if c.Health.MemoryWarning < 0 || c.Health.MemoryWarning >= 1 ||
		c.Health.MemoryCritical < 0 || c.Health.MemoryCritical >= 1 {
		invalid("health", c.Health.MemoryWarning, "memory thresholds must be in [0, 1)")
	}

	return errors.Join(errs...)
}

func configError(msg string, cause error) error {
	return faults.Wrap(cause, msg,
		faults.WithCategory(faults.CategoryConfiguration),
		faults.WithComponent("config"),
	)
}
