package internal

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	// Server holds HTTP server configuration.
	Server ServerConfig `yaml:"server"`
	// Webhook holds the inbound GitHub webhook endpoint configuration.
	Webhook WebhookConfig `yaml:"webhook"`
	// Jira holds the destination Jira site and mapping configuration.
	Jira JiraConfig `yaml:"jira"`
	// Audit holds the optional delivery audit publisher configuration.
	Audit AuditConfig `yaml:"audit"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port           int    `yaml:"port"`
	ReadTimeoutMS  int64  `yaml:"read_timeout_ms"`
	WriteTimeoutMS int64  `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int64  `yaml:"idle_timeout_ms"`
	ReadHeaderMS   int64  `yaml:"read_header_timeout_ms"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
	RateLimitRPS   int64  `yaml:"rate_limit_rps"`
	RateLimitBurst int64  `yaml:"rate_limit_burst"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsPath    string `yaml:"metrics_path"`
}

// WebhookConfig holds the inbound webhook endpoint configuration.
// An empty Secret disables signature verification; that is an explicit
// operator choice, not a fallback.
type WebhookConfig struct {
	Path   string `yaml:"path"`
	Secret string `yaml:"secret"`
}

// JiraConfig holds the destination Jira configuration. APIToken is the
// Atlassian API token paired with Email for basic auth; it must never be
// logged.
type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`

	ProjectKey string `yaml:"project_key"`
	IssueType  string `yaml:"issue_type"`

	SummaryPrefix string `yaml:"summary_prefix"`
	SummaryMaxLen int    `yaml:"summary_max_len"`

	MaxRetries       int   `yaml:"max_retries"`
	BackoffInitialMS int64 `yaml:"backoff_initial_ms"`
	BackoffMaxMS     int64 `yaml:"backoff_max_ms"`
	AttemptTimeoutMS int64 `yaml:"attempt_timeout_ms"`
	OverallTimeoutMS int64 `yaml:"overall_timeout_ms"`
}

// AuditConfig holds configuration for the delivery audit publisher.
type AuditConfig struct {
	Enabled   bool            `yaml:"enabled"`
	Topic     string          `yaml:"topic"`
	Publisher PublisherConfig `yaml:"publisher"`
}

// PublisherConfig selects and configures the audit publisher drivers.
type PublisherConfig struct {
	Driver    string          `yaml:"driver"`
	Drivers   []string        `yaml:"drivers"`
	GoChannel GoChannelConfig `yaml:"gochannel"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	NATS      NATSConfig      `yaml:"nats"`
	AMQP      AMQPConfig      `yaml:"amqp"`
	SQL       SQLConfig       `yaml:"sql"`
	HTTP      HTTPConfig      `yaml:"http"`
	River     RiverConfig     `yaml:"river"`
}

// GoChannelConfig holds configuration for the in-process GoChannel pub/sub.
type GoChannelConfig struct {
	OutputChannelBuffer            int64 `yaml:"output_buffer"`
	Persistent                     bool  `yaml:"persistent"`
	BlockPublishUntilSubscriberAck bool  `yaml:"block_publish_until_subscriber_ack"`
}

// KafkaConfig holds configuration for the Kafka publisher.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// NATSConfig holds configuration for the NATS Streaming publisher.
type NATSConfig struct {
	ClusterID string `yaml:"cluster_id"`
	ClientID  string `yaml:"client_id"`
	URL       string `yaml:"url"`
}

// AMQPConfig holds configuration for the AMQP publisher.
type AMQPConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"`
}

// SQLConfig holds configuration for the SQL publisher.
type SQLConfig struct {
	Driver               string `yaml:"driver"`
	DSN                  string `yaml:"dsn"`
	Dialect              string `yaml:"dialect"`
	AutoInitializeSchema bool   `yaml:"auto_initialize_schema"`
}

// HTTPConfig holds configuration for the HTTP publisher.
type HTTPConfig struct {
	BaseURL string `yaml:"base_url"`
	Mode    string `yaml:"mode"`
}

// RiverConfig holds configuration for the River job-row publisher.
type RiverConfig struct {
	Driver      string   `yaml:"driver"`
	DSN         string   `yaml:"dsn"`
	Table       string   `yaml:"table"`
	Queue       string   `yaml:"queue"`
	Kind        string   `yaml:"kind"`
	MaxAttempts int      `yaml:"max_attempts"`
	Priority    int      `yaml:"priority"`
	Tags        []string `yaml:"tags"`
}

// LoadConfig loads the application configuration from a YAML file.
// It expands environment variables, applies default values, and validates
// the required Jira fields.
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
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.Jira.BaseURL == "" {
		missing = append(missing, "jira.base_url")
	}
	if c.Jira.Email == "" {
		missing = append(missing, "jira.email")
	}
	if c.Jira.APIToken == "" {
		missing = append(missing, "jira.api_token")
	}
	if c.Jira.ProjectKey == "" {
		missing = append(missing, "jira.project_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 5000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		// The write timeout covers the outbound Jira call including
		// retries, so it sits above the default overall deadline.
		cfg.Server.WriteTimeoutMS = 60000
	}
	if cfg.Server.IdleTimeoutMS == 0 {
		cfg.Server.IdleTimeoutMS = 60000
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = "/webhooks/github"
	}
	if cfg.Jira.IssueType == "" {
		cfg.Jira.IssueType = "Task"
	}
	if cfg.Jira.SummaryPrefix == "" {
		cfg.Jira.SummaryPrefix = "[GitHub]"
	}
	if cfg.Jira.SummaryMaxLen == 0 {
		// Jira rejects summaries over 255 characters.
		cfg.Jira.SummaryMaxLen = 255
	}
	if cfg.Jira.MaxRetries == 0 {
		cfg.Jira.MaxRetries = 2
	}
	if cfg.Jira.MaxRetries < 0 {
		// Explicit "never retry".
		cfg.Jira.MaxRetries = 0
	}
	if cfg.Jira.BackoffInitialMS == 0 {
		cfg.Jira.BackoffInitialMS = 500
	}
	if cfg.Jira.BackoffMaxMS == 0 {
		cfg.Jira.BackoffMaxMS = 8000
	}
	if cfg.Jira.AttemptTimeoutMS == 0 {
		cfg.Jira.AttemptTimeoutMS = 10000
	}
	if cfg.Jira.OverallTimeoutMS == 0 {
		cfg.Jira.OverallTimeoutMS = 30000
	}
	if cfg.Audit.Topic == "" {
		cfg.Audit.Topic = "jirahook.deliveries"
	}
	if cfg.Audit.Publisher.Driver == "" {
		cfg.Audit.Publisher.Driver = "gochannel"
	}
	if cfg.Audit.Publisher.GoChannel.OutputChannelBuffer == 0 {
		cfg.Audit.Publisher.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.Audit.Publisher.HTTP.Mode == "" {
		cfg.Audit.Publisher.HTTP.Mode = "topic_url"
	}
	if cfg.Audit.Publisher.River.Table == "" {
		cfg.Audit.Publisher.River.Table = "river_job"
	}
	if cfg.Audit.Publisher.River.Queue == "" {
		cfg.Audit.Publisher.River.Queue = "default"
	}
	if cfg.Audit.Publisher.River.Kind == "" {
		cfg.Audit.Publisher.River.Kind = "jirahook.delivery"
	}
	if cfg.Audit.Publisher.River.MaxAttempts == 0 {
		cfg.Audit.Publisher.River.MaxAttempts = 25
	}
}

// The config stores timeouts in milliseconds; these helpers convert them
// for the HTTP server.

// ReadTimeout returns the server read timeout.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the server write timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// IdleTimeout returns the server idle timeout.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

// ReadHeaderTimeout returns the server read-header timeout.
func (s ServerConfig) ReadHeaderTimeout() time.Duration {
	return time.Duration(s.ReadHeaderMS) * time.Millisecond
}
