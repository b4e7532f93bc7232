package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
	  "bot": {"command_prefix": "/relay"},
	  "defaults": {"commands_enabled": true, "admins": ["1"]},
	  "channels": {"telegram": {"allow_from": ["1"]}},
	  "gateway": {"host": "0.0.0.0", "port": 18790},
	  "logging": {"format": "json", "level": "debug", "add_source": true}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("RELAYBOT_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Fatalf("logging.format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Logging.AddSource {
		t.Fatal("logging.add_source = false, want true")
	}
	if got := cfg.CommandPrefix(); got != "/relay" {
		t.Fatalf("CommandPrefix = %q, want %q", got, "/relay")
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv("RELAYBOT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
syncing_enabled: true
sync_rooms: ["telegram:1", "telegram:2"]
defaults:
  autoreplies_enabled: true
  autoreplies:
    - [["hi", "hello"], "Hello there!"]
    - keywords: ["*"]
      reply: "I see you"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.BroadcastEnabled())
	require.Equal(t, []string{"telegram:1", "telegram:2"}, cfg.BroadcastRooms())
	require.Equal(t, []Autoreply{
		{Keywords: []string{"hi", "hello"}, Reply: "Hello there!"},
		{Keywords: []string{"*"}, Reply: "I see you"},
	}, cfg.Autoreplies("telegram:1"))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token-from-env")
	t.Setenv("TELEGRAM_ALLOW_FROM", " 1, ,2 ")

	cfg, err := Parse([]byte(`{"channels": {"telegram": {"token": "file"}}}`), ".json")
	require.NoError(t, err)
	applyEnvOverrides(cfg)

	require.Equal(t, "token-from-env", cfg.Channels.Telegram.Token)
	require.Equal(t, []string{"1", "2"}, cfg.Channels.Telegram.AllowFrom)
}

func TestConversationOverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`{
	  "defaults": {"commands_enabled": true, "forwarding_enabled": true, "forward_to": ["a"], "commands_admin": ["kick"]},
	  "conversations": {
	    "room": {"commands_enabled": false, "forward_to": [], "admins": ["42"]}
	  }
	}`), ".json")
	require.NoError(t, err)

	require.True(t, cfg.CommandsEnabled("other"))
	require.False(t, cfg.CommandsEnabled("room"))
	require.True(t, cfg.ForwardingEnabled("room"))
	require.Equal(t, []string{"a"}, cfg.ForwardTo("other"))
	require.Empty(t, cfg.ForwardTo("room"))
	require.Equal(t, []string{"kick"}, cfg.AdminCommands("room"))
	require.Equal(t, []string{"42"}, cfg.Admins("room"))
	require.Nil(t, cfg.Admins("other"))
	require.False(t, cfg.AutorepliesEnabled("room"))
}

func TestNilConfigIsDisabled(t *testing.T) {
	t.Parallel()

	var cfg *Config
	require.False(t, cfg.CommandsEnabled("x"))
	require.False(t, cfg.BroadcastEnabled())
	require.Nil(t, cfg.BroadcastRooms())
	require.Equal(t, DefaultCommandPrefix, cfg.CommandPrefix())
	require.Equal(t, "tg://user?id=7", cfg.ProfileURL("7"))
}

func TestAutoreplyPairRejectsWrongArity(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"defaults": {"autoreplies": [[["hi"]]]}}`), ".json")
	require.Error(t, err)
}
