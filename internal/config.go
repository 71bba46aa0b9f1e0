package internal

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration.
type Config struct {
	// Server holds server-specific configuration.
	Server struct {
		Port           int    `yaml:"port"`
		WebhookPath    string `yaml:"webhook_path"`
		ReadHeaderMS   int64  `yaml:"read_header_timeout_ms"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes"`
		RateLimitRPS   int64  `yaml:"rate_limit_rps"`
		RateLimitBurst int64  `yaml:"rate_limit_burst"`
	} `yaml:"server"`
	// Forge holds configuration for the Git-hosting REST API.
	Forge ForgeConfig `yaml:"forge"`
	// Secrets holds configuration for file-mounted secret resolution.
	Secrets SecretsConfig `yaml:"secrets"`
	// Model holds configuration for the review model service.
	Model ModelConfig `yaml:"model"`
	// Scheduler holds configuration for the background job dispatch.
	Scheduler SchedulerConfig `yaml:"scheduler"`
	// Filters are the actionable-event filter rules. When empty, the default
	// pull-request rule set applies.
	Filters []FilterRule `yaml:"filters"`
}

// ForgeConfig represents the configuration for the forge REST client.
type ForgeConfig struct {
	URL       string `yaml:"url"`
	TimeoutMS int64  `yaml:"timeout_ms"`
}

// SecretsConfig controls where mounted secret files are looked up.
type SecretsConfig struct {
	MountDir string `yaml:"mount_dir"`
}

// ModelConfig holds configuration for the review model invocation.
type ModelConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Agent       string `yaml:"agent"`
	Instruction string `yaml:"instruction"`
	Footer      string `yaml:"footer"`
	Streaming   bool   `yaml:"streaming"`
	TimeoutMS   int64  `yaml:"timeout_ms"`
}

// SchedulerConfig holds the configuration for the watermill-backed job scheduler.
type SchedulerConfig struct {
	Driver      string          `yaml:"driver"`
	Topic       string          `yaml:"topic"`
	Concurrency int             `yaml:"concurrency"`
	GoChannel   GoChannelConfig `yaml:"gochannel"`
	AMQP        AMQPConfig      `yaml:"amqp"`
	SQL         SQLConfig       `yaml:"sql"`
}

// GoChannelConfig holds configuration for the in-process GoChannel pub/sub.
type GoChannelConfig struct {
	OutputChannelBuffer int64 `yaml:"output_buffer"`
	Persistent          bool  `yaml:"persistent"`
}

// AMQPConfig holds configuration for the AMQP pub/sub.
type AMQPConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"`
}

// SQLConfig holds configuration for the SQL pub/sub.
type SQLConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	Dialect          string `yaml:"dialect"`
	InitializeSchema bool   `yaml:"initialize_schema"`
}

// FilterRule is a single actionable-event filter expression evaluated
// over the flattened webhook payload.
type FilterRule struct {
	When string `yaml:"when"`
}

// LoadConfig loads the application configuration from a YAML file.
// It expands environment variables and applies default values.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg)
	normalized, err := normalizeFilters(cfg.Filters)
	if err != nil {
		return cfg, err
	}
	cfg.Filters = normalized

	return cfg, nil
}

// DefaultConfig returns a configuration with all defaults applied,
// for running without a config file.
func DefaultConfig() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.WebhookPath == "" {
		cfg.Server.WebhookPath = "/webhook"
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Forge.URL == "" {
		cfg.Forge.URL = os.Getenv("GITEA_URL")
	}
	if cfg.Forge.TimeoutMS == 0 {
		cfg.Forge.TimeoutMS = 30000
	}
	if cfg.Secrets.MountDir == "" {
		cfg.Secrets.MountDir = "/etc"
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = "gpt-4o-mini"
	}
	if cfg.Model.Agent == "" {
		cfg.Model.Agent = "CodeReviewer"
	}
	if cfg.Model.TimeoutMS == 0 {
		cfg.Model.TimeoutMS = 120000
	}
	if cfg.Scheduler.Driver == "" {
		cfg.Scheduler.Driver = "gochannel"
	}
	if cfg.Scheduler.Topic == "" {
		cfg.Scheduler.Topic = "review.jobs"
	}
	if cfg.Scheduler.Concurrency == 0 {
		cfg.Scheduler.Concurrency = 4
	}
	if cfg.Scheduler.GoChannel.OutputChannelBuffer == 0 {
		cfg.Scheduler.GoChannel.OutputChannelBuffer = 64
	}
}

func normalizeFilters(filters []FilterRule) ([]FilterRule, error) {
	out := make([]FilterRule, 0, len(filters))
	for i := range filters {
		rule := filters[i]
		rule.When = strings.TrimSpace(rule.When)
		if rule.When == "" {
			return nil, fmt.Errorf("filter %d is missing when", i)
		}
		out = append(out, rule)
	}
	return out, nil
}
