// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from
// switchboard.yaml.
type Config struct {
	Platform  string          `yaml:"platform"` // chat platform: "discord"
	Admins    []int64         `yaml:"admins"`   // operator allow-list (platform user IDs)
	PhotoURL  string          `yaml:"photo_url"`
	Database  DatabaseConfig  `yaml:"database"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Discord   DiscordConfig   `yaml:"discord"`
	Digest    DigestConfig    `yaml:"digest"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// DatabaseConfig holds connection settings for the platform database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "postgres" (default) or "mysql"
	DSN    string `yaml:"dsn"`
}

// GatewayConfig holds model gateway (OpenRouter) settings.
type GatewayConfig struct {
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"`
	Models          []string `yaml:"models"` // fallback order, first is primary
	RetryBackoffSec int      `yaml:"retry_backoff_sec"`
	Referer         string   `yaml:"referer"`
	Title           string   `yaml:"title"`
}

// DiscordConfig holds Discord transport settings.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DigestConfig controls the scheduled open-ticket digest sent to operators.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"` // 5-field cron expression
}

// DashboardConfig controls the ops dashboard HTTP server.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// AlertsConfig controls out-of-band operator alerting.
type AlertsConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "https://openrouter.ai/api/v1"
	}
	if len(c.Gateway.Models) == 0 {
		c.Gateway.Models = []string{
			"openai/gpt-4o-mini",
			"google/gemini-2.0-flash-exp:free",
		}
	}
	if c.Gateway.RetryBackoffSec == 0 {
		c.Gateway.RetryBackoffSec = 3
	}
	if c.Gateway.Referer == "" {
		c.Gateway.Referer = "https://influenta.io"
	}
	if c.Gateway.Title == "" {
		c.Gateway.Title = "Influenta Support Bot"
	}
	if c.Digest.Cron == "" {
		c.Digest.Cron = "0 9 * * *"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Platform == "" {
		errs = append(errs, "platform is required")
	} else if c.Platform != "discord" {
		errs = append(errs, fmt.Sprintf("unsupported platform %q", c.Platform))
	}
	if c.Platform == "discord" && c.Discord.BotToken == "" {
		errs = append(errs, "discord.bot_token is required")
	}
	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
		errs = append(errs, fmt.Sprintf("unsupported database.driver %q", c.Database.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
