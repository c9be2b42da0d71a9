package conf

import (
	"os"
	"strconv"
	"time"

	"github.com/robomo/discord-bridge/internal/biz/domain"
	"github.com/robomo/discord-bridge/internal/biz/usecase"
)

// Config represents application configuration
type Config struct {
	// Discord gateway configuration
	Discord DiscordConfig

	// Slack relay configuration
	Slack SlackConfig

	// RoboMo QA backend configuration
	RoboMo RoboMoConfig

	// AWS configuration (secret store)
	AWS AWSConfig

	// Relay policy (rate window, retries)
	Relay RelayConfig

	// Routing rules (loaded from YAML)
	Routing *RoutingConfig

	// Metrics listener address, empty disables the listener
	MetricsAddr string

	// Debug mode
	Debug bool
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	TokenSecretName string // name in the secret store
	TokenEnvVar     string // env var consulted before the store
	TokenField      string // field inside a JSON secret envelope, optional
	BotName         string // mention token stripped from questions
}

// SlackConfig contains Slack configuration
type SlackConfig struct {
	TokenSecretName  string
	TokenEnvVar      string
	TokenField       string
	SupportChannelID string // fixed relay destination
}

// RoboMoConfig contains QA backend configuration
type RoboMoConfig struct {
	Endpoint        string // base URL of the langserve backend
	ChainPath       string // mounted retrieval chain path
	IndexName       string // vector index rebuilt on schedule
	ReindexInterval time.Duration
}

// AWSConfig contains AWS configuration
type AWSConfig struct {
	Region string
}

// RelayConfig contains the anti-spam window and delivery retry policy
type RelayConfig struct {
	RateWindow  time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Rate window
	windowMin := 5
	if val := os.Getenv("RATE_WINDOW_MINUTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			windowMin = parsed
		}
	}

	// Delivery retry policy
	maxAttempts := 3
	if val := os.Getenv("DELIVERY_MAX_ATTEMPTS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			maxAttempts = parsed
		}
	}

	backoffMs := 1000
	if val := os.Getenv("DELIVERY_BACKOFF_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			backoffMs = parsed
		}
	}

	// Reindex schedule
	reindexHours := 24
	if val := os.Getenv("REINDEX_INTERVAL_HOURS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			reindexHours = parsed
		}
	}

	botName := os.Getenv("BOT_NAME")
	if botName == "" {
		botName = "RoboMo"
	}

	chainPath := os.Getenv("ROBOMO_CHAIN_PATH")
	if chainPath == "" {
		chainPath = "rag-momento-vector-index"
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-west-2"
	}

	// Load routing rules from YAML
	routing, _ := LoadRoutingConfig(os.Getenv("ROUTING_CONFIG_PATH"))

	return &Config{
		Discord: DiscordConfig{
			TokenSecretName: envOr("DISCORD_TOKEN_SECRET_NAME", "DiscordBotToken"),
			TokenEnvVar:     "DISCORD_BOT_TOKEN",
			TokenField:      os.Getenv("DISCORD_TOKEN_FIELD"),
			BotName:         botName,
		},
		Slack: SlackConfig{
			TokenSecretName:  envOr("SLACK_TOKEN_SECRET_NAME", "SlackToken"),
			TokenEnvVar:      "SLACK_BOT_TOKEN",
			TokenField:       os.Getenv("SLACK_TOKEN_FIELD"),
			SupportChannelID: os.Getenv("SLACK_SUPPORT_CHANNEL_ID"),
		},
		RoboMo: RoboMoConfig{
			Endpoint:        os.Getenv("ROBOMO_API_ENDPOINT"),
			ChainPath:       chainPath,
			IndexName:       os.Getenv("ROBOMO_INDEX_NAME"),
			ReindexInterval: time.Duration(reindexHours) * time.Hour,
		},
		AWS: AWSConfig{
			Region: region,
		},
		Relay: RelayConfig{
			RateWindow:  time.Duration(windowMin) * time.Minute,
			MaxAttempts: maxAttempts,
			Backoff:     time.Duration(backoffMs) * time.Millisecond,
		},
		Routing:     routing,
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		Debug:       os.Getenv("DEBUG") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ToRouterConfig converts to the router's configuration
func (c *Config) ToRouterConfig() usecase.RouterConfig {
	routing := c.Routing
	if routing == nil {
		routing = DefaultRoutingConfig()
	}
	return usecase.RouterConfig{
		BotName:             c.Discord.BotName,
		SupportChannelIDs:   routing.SupportChannels.IDs,
		SupportChannelNames: routing.SupportChannels.Names,
		SlackChannelID:      c.Slack.SupportChannelID,
		FallbackReply:       routing.FallbackReply,
	}
}

// ToRetryPolicy converts to the deliverer's retry policy
func (c *Config) ToRetryPolicy() usecase.RetryPolicy {
	return usecase.RetryPolicy{
		MaxAttempts: c.Relay.MaxAttempts,
		Backoff:     c.Relay.Backoff,
	}
}

// NewRateWindow creates the process-wide rate window tracker
func (c *Config) NewRateWindow() *domain.RateWindow {
	return domain.NewRateWindow(c.Relay.RateWindow)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Slack.SupportChannelID == "" {
		return &ConfigError{Field: "SLACK_SUPPORT_CHANNEL_ID", Message: "required"}
	}
	if c.RoboMo.Endpoint == "" {
		return &ConfigError{Field: "ROBOMO_API_ENDPOINT", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
