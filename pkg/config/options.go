package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Autoreply pairs a keyword set with the reply sent when any keyword matches.
type Autoreply struct {
	Keywords []string `json:"keywords"`
	Reply    string   `json:"reply"`
}

// UnmarshalJSON accepts both {"keywords": [...], "reply": "..."} and the
// compact pair form [["hi", "hello"], "Hello!"].
func (a *Autoreply) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pair []json.RawMessage
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("autoreply pair must have 2 elements, got %d", len(pair))
		}

		var keywords []string
		if err := json.Unmarshal(pair[0], &keywords); err != nil {
			var single string
			if errSingle := json.Unmarshal(pair[0], &single); errSingle != nil {
				return fmt.Errorf("autoreply keywords: %w", err)
			}
			keywords = []string{single}
		}

		var reply string
		if err := json.Unmarshal(pair[1], &reply); err != nil {
			return fmt.Errorf("autoreply reply: %w", err)
		}

		a.Keywords = keywords
		a.Reply = reply
		return nil
	}

	type plain Autoreply
	var decoded plain
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*a = Autoreply(decoded)
	return nil
}

// CommandPrefix returns the token that marks a message as a bot command.
func (c *Config) CommandPrefix() string {
	if c == nil {
		return DefaultCommandPrefix
	}
	if prefix := strings.TrimSpace(c.Bot.CommandPrefix); prefix != "" {
		return prefix
	}

	return DefaultCommandPrefix
}

// ProfileURL returns the profile link for one sender id.
func (c *Config) ProfileURL(userID string) string {
	template := DefaultProfileURL
	if c != nil && strings.TrimSpace(c.Bot.ProfileURL) != "" {
		template = strings.TrimSpace(c.Bot.ProfileURL)
	}

	return strings.ReplaceAll(template, "{id}", userID)
}

func (c *Config) CommandsEnabled(conversationID string) bool {
	return c.flag(conversationID, func(o ConversationOptions) *bool { return o.CommandsEnabled })
}

func (c *Config) AdminCommands(conversationID string) []string {
	return c.list(conversationID, func(o ConversationOptions) []string { return o.CommandsAdmin })
}

func (c *Config) Admins(conversationID string) []string {
	return c.list(conversationID, func(o ConversationOptions) []string { return o.Admins })
}

func (c *Config) ForwardingEnabled(conversationID string) bool {
	return c.flag(conversationID, func(o ConversationOptions) *bool { return o.ForwardingEnabled })
}

func (c *Config) ForwardTo(conversationID string) []string {
	return c.list(conversationID, func(o ConversationOptions) []string { return o.ForwardTo })
}

func (c *Config) AutorepliesEnabled(conversationID string) bool {
	return c.flag(conversationID, func(o ConversationOptions) *bool { return o.AutorepliesEnabled })
}

func (c *Config) Autoreplies(conversationID string) []Autoreply {
	if c == nil {
		return nil
	}
	if opts, ok := c.Conversations[conversationID]; ok && opts.Autoreplies != nil {
		return opts.Autoreplies
	}

	return c.Defaults.Autoreplies
}

func (c *Config) MentionsEnabled(conversationID string) bool {
	return c.flag(conversationID, func(o ConversationOptions) *bool { return o.MentionsEnabled })
}

// BroadcastEnabled reports the global syncing_enabled switch.
func (c *Config) BroadcastEnabled() bool {
	return c != nil && c.SyncingEnabled
}

// BroadcastRooms returns the global sync_rooms set.
func (c *Config) BroadcastRooms() []string {
	if c == nil {
		return nil
	}

	return c.SyncRooms
}

func (c *Config) flag(conversationID string, pick func(ConversationOptions) *bool) bool {
	if c == nil {
		return false
	}
	if opts, ok := c.Conversations[conversationID]; ok {
		if value := pick(opts); value != nil {
			return *value
		}
	}
	if value := pick(c.Defaults); value != nil {
		return *value
	}

	return false
}

func (c *Config) list(conversationID string, pick func(ConversationOptions) []string) []string {
	if c == nil {
		return nil
	}
	if opts, ok := c.Conversations[conversationID]; ok {
		if value := pick(opts); value != nil {
			return value
		}
	}

	return pick(c.Defaults)
}
