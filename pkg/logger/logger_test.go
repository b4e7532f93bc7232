package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relaybot/pkg/config"
)

func decodeEntry(t *testing.T, out *bytes.Buffer) Entry {
	t.Helper()

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log entry %q: %v", line, err)
	}
	return entry
}

func TestLoggerJSONEntryShape(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	log.With("component", "dispatcher").Info("Event dispatched",
		"conversation_id", "telegram:1",
		"event_id", "telegram:1:42",
		"sent", 2,
		"ok", true,
	)

	entry := decodeEntry(t, &out)
	if entry.Level != "info" {
		t.Fatalf("level = %q, want %q", entry.Level, "info")
	}
	if entry.Message != "Event dispatched" {
		t.Fatalf("msg = %q, want %q", entry.Message, "Event dispatched")
	}
	if entry.Component != "dispatcher" {
		t.Fatalf("component = %q, want %q", entry.Component, "dispatcher")
	}
	if entry.ConversationID != "telegram:1" {
		t.Fatalf("conversation_id = %q, want %q", entry.ConversationID, "telegram:1")
	}
	if entry.EventID != "telegram:1:42" {
		t.Fatalf("event_id = %q, want %q", entry.EventID, "telegram:1:42")
	}
	if entry.Time == "" {
		t.Fatal("expected time")
	}
	if got := entry.Fields["sent"]; got != float64(2) {
		t.Fatalf("fields.sent = %v, want 2", got)
	}
	if got := entry.Fields["ok"]; got != true {
		t.Fatalf("fields.ok = %v, want true", got)
	}
	if _, ok := entry.Fields["event_id"]; ok {
		t.Fatal("event_id must not be duplicated in fields")
	}
}

func TestLoggerFlattensGroups(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json"}, &out)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	log.WithGroup("relay").Info("Forwarded", "conversation_id", "console:ops", "sent", 1)

	entry := decodeEntry(t, &out)
	if entry.ConversationID != "" {
		t.Fatalf("conversation_id = %q, want grouped key left in fields", entry.ConversationID)
	}
	if got := entry.Fields["relay.conversation_id"]; got != "console:ops" {
		t.Fatalf("fields[relay.conversation_id] = %v, want %q", got, "console:ops")
	}
	if got := entry.Fields["relay.sent"]; got != float64(1) {
		t.Fatalf("fields[relay.sent] = %v, want 1", got)
	}
}

func TestLoggerRedactsSecrets(t *testing.T) {
	unsetLoggingEnv(t)

	const token = "123456:ABC-secret"

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json"}, &out, WithSecrets(token, " "))
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	sendErr := errors.New("post https://api.telegram.org/bot" + token + "/sendMessage: timeout")
	log.With("token", token).Warn("Send failed for "+token, "error", sendErr)

	line := out.String()
	if strings.Contains(line, token) {
		t.Fatalf("log line leaks secret: %s", line)
	}

	entry := decodeEntry(t, &out)
	if entry.Message != "Send failed for [redacted]" {
		t.Fatalf("msg = %q, want redacted", entry.Message)
	}
	if got := entry.Fields["error"]; got != "post https://api.telegram.org/bot[redacted]/sendMessage: timeout" {
		t.Fatalf("fields.error = %v, want redacted URL", got)
	}
}

func TestLoggerRedactsTextFormat(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{}, &out, WithSecrets("hunter2"))
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	log.Info("Starting", "token", "hunter2")
	if strings.Contains(out.String(), "hunter2") {
		t.Fatalf("text output leaks secret: %s", out.String())
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	log.Info("Ignored")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected no output for info, got %q", got)
	}

	log.Error("Kept")
	if got := strings.TrimSpace(out.String()); got == "" {
		t.Fatal("expected output for error")
	}
}

func TestLoggerRejectsUnknownSettings(t *testing.T) {
	unsetLoggingEnv(t)

	if _, err := NewWithWriter(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := NewWithWriter(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerEnvironmentOverrides(t *testing.T) {
	t.Setenv("RELAYBOT_LOG_LEVEL", "debug")
	t.Setenv("RELAYBOT_LOG_FORMAT", "text")

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	log.Debug("Debug enabled", "component", "test")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected debug output with env override")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format override, got %q", line)
	}
}

func TestLoggerDefaultsToTextFormat(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	log.Info("Default format")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format by default, got %q", line)
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	unsetLoggingEnv(t)

	path := filepath.Join(t.TempDir(), "logs", "relaybot.log")
	log, err := New(config.LoggingConfig{Format: "json", File: path})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	log.Warn("Relay skipped", "conversation_id", "telegram:1")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "Relay skipped") {
		t.Fatalf("log file = %q, want entry", content)
	}
}

func unsetLoggingEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"LEVEL", "FORMAT", "ADD_SOURCE"} {
		t.Setenv(envPrefix+name, "")
	}
}
