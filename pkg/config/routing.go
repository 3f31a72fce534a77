package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RoutingConfig holds classification, routing and resilience configuration.
type RoutingConfig struct {
	TaskTypes       map[string]TaskTypeRule `yaml:"task_types"`
	PrivacyTriggers []string                `yaml:"privacy_triggers,omitempty"`
	Thresholds      Thresholds              `yaml:"thresholds,omitempty"`
	Cloud           CloudConfig             `yaml:"cloud,omitempty"`
	Cache           CacheConfig             `yaml:"cache,omitempty"`
	RateLimit       RateLimitConfig         `yaml:"rate_limit,omitempty"`
	Budget          BudgetConfig            `yaml:"budget,omitempty"`
	Pricing         PricingConfig           `yaml:"pricing,omitempty"`
	Retry           RetryConfig             `yaml:"retry,omitempty"`
	Breaker         BreakerConfig           `yaml:"breaker,omitempty"`
	MaxInputChars   int                     `yaml:"max_input_chars,omitempty"`
}

// TaskTypeRule defines a category of tasks with its classification triggers.
type TaskTypeRule struct {
	Triggers   []string `yaml:"triggers"`
	Complexity string   `yaml:"complexity,omitempty"` // base tier: simple|moderate|complex|advanced
	Route      string   `yaml:"route,omitempty"`      // suggested route: local|cloud|hybrid
}

// Thresholds holds the confidence cutoffs used by the router.
// The source material uses several ad-hoc constants; here they are explicit.
type Thresholds struct {
	LocalConfidence float64 `yaml:"local_confidence,omitempty"` // >= this and simple/moderate => local
	Escalation      float64 `yaml:"escalation,omitempty"`       // < this sets the escalation flag
}

// CloudConfig selects the cloud adapter/model and per-attempt deadline.
type CloudConfig struct {
	Adapter       string `yaml:"adapter,omitempty"`
	Model         string `yaml:"model,omitempty"`
	TimeoutMs     int    `yaml:"timeout_ms,omitempty"`
	MaxOutputToks int    `yaml:"max_output_tokens,omitempty"`
}

// Timeout returns the per-attempt cloud call deadline.
func (c CloudConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// CacheConfig tunes the response cache.
// TTLSeconds of 0 means entries never expire until an explicit clear.
type CacheConfig struct {
	TTLSeconds         int      `yaml:"ttl_seconds,omitempty"`
	CacheableTaskTypes []string `yaml:"cacheable_task_types,omitempty"`
}

// TTL returns the configured entry lifetime (0 = no expiry).
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RateLimitConfig tunes the cloud-path sliding window.
type RateLimitConfig struct {
	MaxRequests   int `yaml:"max_requests,omitempty"`
	MaxTokens     int `yaml:"max_tokens,omitempty"`
	WindowSeconds int `yaml:"window_seconds,omitempty"`
}

// Window returns the sliding window duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// BudgetConfig caps total cloud spend for the process lifetime.
type BudgetConfig struct {
	MaxUSD float64 `yaml:"max_usd,omitempty"`
}

// PricingConfig maps adapter -> model -> pricing.
type PricingConfig map[string]map[string]ModelPricing

// ModelPricing defines per-1k token pricing.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k,omitempty"`
	CompletionPer1K float64 `yaml:"completion_per_1k,omitempty"`
}

// RetryConfig defines retry and backoff behavior for the cloud path.
type RetryConfig struct {
	MaxAttempts       int      `yaml:"max_attempts,omitempty"`
	BaseBackoffMs     int      `yaml:"base_backoff_ms,omitempty"`
	MaxBackoffMs      int      `yaml:"max_backoff_ms,omitempty"`
	BackoffMultiplier float64  `yaml:"backoff_multiplier,omitempty"`
	JitterMin         float64  `yaml:"jitter_min,omitempty"`
	JitterMax         float64  `yaml:"jitter_max,omitempty"`
	RetryableCodes    []string `yaml:"retryable_codes,omitempty"`
}

// BreakerConfig tunes the cloud circuit breaker.
type BreakerConfig struct {
	FailureThreshold  int `yaml:"failure_threshold,omitempty"`
	RecoveryTimeoutMs int `yaml:"recovery_timeout_ms,omitempty"`
	SuccessThreshold  int `yaml:"success_threshold,omitempty"`
}

// RecoveryTimeout returns the open -> half-open wait.
func (c BreakerConfig) RecoveryTimeout() time.Duration {
	return time.Duration(c.RecoveryTimeoutMs) * time.Millisecond
}

// LoadRoutingConfig reads routing configuration from a YAML file.
func LoadRoutingConfig(path string) (*RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyRoutingDefaults(&cfg)
	return &cfg, nil
}

// DefaultRoutingConfig returns the default routing configuration.
func DefaultRoutingConfig() *RoutingConfig {
	cfg := &RoutingConfig{
		TaskTypes: map[string]TaskTypeRule{
			"fileOperation": {
				Triggers:   []string{"copy", "move", "rename", "delete file", "create folder", "list files", "find file"},
				Complexity: "simple",
				Route:      "local",
			},
			"systemQuery": {
				Triggers:   []string{"battery", "disk space", "memory usage", "cpu", "what time", "system info", "uptime", "hostname"},
				Complexity: "simple",
				Route:      "local",
			},
			"appControl": {
				Triggers:   []string{"open", "close", "quit", "launch", "switch to"},
				Complexity: "moderate",
				Route:      "local",
			},
			"textProcessing": {
				Triggers:   []string{"uppercase", "lowercase", "count words", "reverse", "summarize", "rewrite", "translate", "explain"},
				Complexity: "moderate",
				Route:      "hybrid",
			},
			"automation": {
				Triggers:   []string{"automate", "schedule", "workflow", "every day", "when i", "and then"},
				Complexity: "complex",
				Route:      "cloud",
			},
			"help": {
				Triggers:   []string{"help", "how do i", "what can you do", "commands"},
				Complexity: "simple",
				Route:      "local",
			},
		},
		PrivacyTriggers: []string{
			"password", "passwords", "credential", "credentials",
			"keychain", "api key", "secret", "token", "passphrase",
		},
		Cloud: CloudConfig{
			Adapter: "anthropic",
			Model:   "claude-sonnet-4-20250514",
		},
		Pricing: PricingConfig{
			"anthropic": {
				"claude-sonnet-4-20250514": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
				"claude-opus-4-20250514":   {PromptPer1K: 0.015, CompletionPer1K: 0.075},
				"default":                  {PromptPer1K: 0.003, CompletionPer1K: 0.015},
			},
			"openai": {
				"gpt-5.2-instant":  {PromptPer1K: 0.0005, CompletionPer1K: 0.0015},
				"gpt-5.2-thinking": {PromptPer1K: 0.005, CompletionPer1K: 0.015},
				"default":          {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			},
			"google": {
				"gemini-2.0-pro": {PromptPer1K: 0.00125, CompletionPer1K: 0.005},
				"default":        {PromptPer1K: 0.00125, CompletionPer1K: 0.005},
			},
		},
	}

	applyRoutingDefaults(cfg)
	return cfg
}

func applyRoutingDefaults(cfg *RoutingConfig) {
	if cfg == nil {
		return
	}
	if cfg.Thresholds.LocalConfidence == 0 {
		cfg.Thresholds.LocalConfidence = 0.8
	}
	if cfg.Thresholds.Escalation == 0 {
		cfg.Thresholds.Escalation = 0.7
	}
	if cfg.Cloud.Adapter == "" {
		cfg.Cloud.Adapter = "anthropic"
	}
	if cfg.Cloud.Model == "" {
		cfg.Cloud.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Cloud.TimeoutMs == 0 {
		cfg.Cloud.TimeoutMs = 30000
	}
	if cfg.Cloud.MaxOutputToks == 0 {
		cfg.Cloud.MaxOutputToks = 4096
	}
	if len(cfg.Cache.CacheableTaskTypes) == 0 {
		cfg.Cache.CacheableTaskTypes = []string{"help"}
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 30
	}
	if cfg.RateLimit.MaxTokens == 0 {
		cfg.RateLimit.MaxTokens = 100000
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.Budget.MaxUSD == 0 {
		cfg.Budget.MaxUSD = 5.0
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseBackoffMs == 0 {
		cfg.Retry.BaseBackoffMs = 200
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = 2000
	}
	if cfg.Retry.MaxBackoffMs < cfg.Retry.BaseBackoffMs {
		cfg.Retry.MaxBackoffMs = cfg.Retry.BaseBackoffMs
	}
	if cfg.Retry.BackoffMultiplier == 0 {
		cfg.Retry.BackoffMultiplier = 2.0
	}
	if cfg.Retry.JitterMin == 0 && cfg.Retry.JitterMax == 0 {
		cfg.Retry.JitterMin = 0.8
		cfg.Retry.JitterMax = 1.2
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.RecoveryTimeoutMs == 0 {
		cfg.Breaker.RecoveryTimeoutMs = 30000
	}
	if cfg.Breaker.SuccessThreshold == 0 {
		cfg.Breaker.SuccessThreshold = 2
	}
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = 4000
	}
}
