package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Sources  SourcesConfig  `yaml:"sources"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Enrich   EnrichConfig   `yaml:"enrich"`
	Report   ReportConfig   `yaml:"report"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig configures the SQLite snapshot store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the digest daemon.
type ScheduleConfig struct {
	Cron    string `yaml:"cron"`
	Keyword string `yaml:"keyword"`
	Top     int    `yaml:"top"`
}

// FetchConfig configures collection.
type FetchConfig struct {
	Limit       int    `yaml:"limit"`
	Pack        string `yaml:"pack"`
	Timeout     string `yaml:"timeout"`
	UserAgent   string `yaml:"user_agent"`
	Concurrency int    `yaml:"concurrency"`
}

// ParseTimeout returns the per-request timeout as time.Duration.
func (f FetchConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// SourcesConfig holds per-source settings.
type SourcesConfig struct {
	RSSPlus RSSPlusConfig `yaml:"rssplus"`
	NewsNow NewsNowConfig `yaml:"newsnow"`
}

// RSSPlusConfig lists the feeds of the RSS+ bundle. Empty uses the built-ins.
type RSSPlusConfig struct {
	Feeds []FeedItem `yaml:"feeds"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// NewsNowConfig configures the NewsNow aggregator.
type NewsNowConfig struct {
	APIURL    string            `yaml:"api_url"`
	Platforms []NewsNowPlatform `yaml:"platforms"`
}

// NewsNowPlatform is one aggregator platform. Empty list uses the built-ins.
type NewsNowPlatform struct {
	ID      string `yaml:"id"`
	Display string `yaml:"display"`
}

// RankingConfig adjusts the source weight table.
type RankingConfig struct {
	SourceWeights    map[string]float64 `yaml:"source_weights"`
	AggregatorPrefix string             `yaml:"aggregator_prefix"`
	AggregatorWeight float64            `yaml:"aggregator_weight"`
	DefaultWeight    float64            `yaml:"default_weight"`
}

// EnrichConfig configures article text extraction for --deep runs.
type EnrichConfig struct {
	Workers  int    `yaml:"workers"`
	Timeout  string `yaml:"timeout"`
	MaxChars int    `yaml:"max_chars"`
	DeepTop  int    `yaml:"deep_top"`
}

// ParseTimeout returns the per-page timeout as time.Duration.
func (e EnrichConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ReportConfig configures markdown report output.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// AlertsConfig configures digest destinations.
type AlertsConfig struct {
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
	MaxItems int            `yaml:"max_items"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// TelegramConfig for Telegram bot alerts.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{Path: "./hotdigest.db"},
		Schedule: ScheduleConfig{Cron: "@every 1h", Top: 30},
		Fetch: FetchConfig{
			Limit:       10,
			Pack:        "core",
			Timeout:     "10s",
			Concurrency: 8,
		},
		Ranking: RankingConfig{
			AggregatorPrefix: "NewsNow ",
			AggregatorWeight: 0.95,
			DefaultWeight:    0.8,
		},
		Enrich: EnrichConfig{
			Workers:  10,
			Timeout:  "5s",
			MaxChars: 3000,
			DeepTop:  20,
		},
		Report: ReportConfig{Dir: "reports"},
		Alerts: AlertsConfig{MaxItems: 10},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("HOTDIGEST_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HOTDIGEST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Alerts.Telegram.Token = v
		cfg.Alerts.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		var id int64
		if _, err := fmt.Sscan(v, &id); err != nil {
			return fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Alerts.Telegram.ChatID = id
	}
	return nil
}
