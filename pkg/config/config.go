package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	envConfigPath        = "RELAYBOT_CONFIG"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"
)

const (
	DefaultCommandPrefix = "/bot"
	DefaultProfileURL    = "tg://user?id={id}"
)

// Config is the root runtime configuration loaded from config.json or config.yaml.
type Config struct {
	Bot            BotConfig                      `json:"bot"`
	Defaults       ConversationOptions            `json:"defaults"`
	Conversations  map[string]ConversationOptions `json:"conversations,omitempty"`
	SyncingEnabled bool                           `json:"syncing_enabled"`
	SyncRooms      []string                       `json:"sync_rooms,omitempty"`
	Channels       ChannelsConfig                 `json:"channels"`
	Gateway        GatewayConfig                  `json:"gateway"`
	Logging        LoggingConfig                  `json:"logging,omitempty"`
}

// BotConfig holds identity-level settings shared by every conversation.
type BotConfig struct {
	CommandPrefix string `json:"command_prefix,omitempty"`
	// ProfileURL is a link template; {id} is replaced by the sender id.
	ProfileURL string `json:"profile_url,omitempty"`
}

// ConversationOptions are the per-conversation switches. Unset fields fall
// back to Config.Defaults.
type ConversationOptions struct {
	CommandsEnabled    *bool       `json:"commands_enabled,omitempty"`
	CommandsAdmin      []string    `json:"commands_admin,omitempty"`
	Admins             []string    `json:"admins,omitempty"`
	ForwardingEnabled  *bool       `json:"forwarding_enabled,omitempty"`
	ForwardTo          []string    `json:"forward_to,omitempty"`
	AutorepliesEnabled *bool       `json:"autoreplies_enabled,omitempty"`
	Autoreplies        []Autoreply `json:"autoreplies,omitempty"`
	MentionsEnabled    *bool       `json:"mentions_enabled,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
	// File redirects log output away from stderr.
	File string `json:"file,omitempty"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Console  ConsoleConfig  `json:"console"`
}

// TelegramConfig configures Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
	// SendRate is the sustained per-chat send rate in messages per second.
	SendRate  float64 `json:"send_rate,omitempty"`
	SendBurst int     `json:"send_burst,omitempty"`
}

// ConsoleConfig configures the local console transport.
type ConsoleConfig struct {
	Rooms    []string `json:"rooms,omitempty"`
	UserName string   `json:"user_name,omitempty"`
}

// GatewayConfig configures HTTP status server bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoadConfig resolves the config file, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads the config at path, or resolves the default location when path is empty.
func Load(path string) (*Config, error) {
	configPath := strings.TrimSpace(path)
	if configPath == "" {
		resolved, err := findConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(content, filepath.Ext(configPath))
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Parse decodes raw config content. YAML is converted to JSON first so both
// formats share the json struct tags and custom decoders.
func Parse(content []byte, ext string) (*Config, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		converted, err := yaml.YAMLToJSON(content)
		if err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		content = converted
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is RELAYBOT_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config.yaml"),
		filepath.Join(cwd, "config.yml"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config file not found (checked %s)", strings.Join(candidates, ", "))
}
