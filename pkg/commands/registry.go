// Package commands is the bot's command engine: a registry of named commands
// invoked by the dispatcher with already-split arguments.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"relaybot/pkg/channel"
	"relaybot/pkg/chat"
)

// Settings is the configuration the built-in commands read.
type Settings interface {
	BroadcastRooms() []string
	MentionsEnabled(conversationID string) bool
}

// Func runs one command invocation.
type Func func(ctx context.Context, inv *Invocation) error

// Command describes one registered command.
type Command struct {
	Name  string
	Usage string
	Help  string
	Run   Func
	// Hidden commands are callable but not listed by help.
	Hidden bool
}

// Invocation carries one command call and reply helpers bound to the
// conversation the command came from.
type Invocation struct {
	Event    chat.Event
	Name     string
	Args     []string
	registry *Registry
}

// Reply sends plain text to the invoking conversation.
func (inv *Invocation) Reply(ctx context.Context, text string) error {
	return inv.send(ctx, []chat.Segment{chat.Text(text)})
}

// ReplyMarkup sends <b>/<i> markup to the invoking conversation.
func (inv *Invocation) ReplyMarkup(ctx context.Context, markup string) error {
	return inv.send(ctx, chat.ParseMarkup(markup))
}

func (inv *Invocation) send(ctx context.Context, segments []chat.Segment) error {
	conv, err := inv.registry.transport.Conversation(ctx, inv.Event.ConversationID)
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}

	return inv.registry.transport.Send(ctx, conv, segments)
}

// Registry maps lower-cased command names to commands.
type Registry struct {
	transport channel.Transport
	settings  Settings
	log       *slog.Logger

	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns a registry with the built-in commands registered.
func NewRegistry(transport channel.Transport, settings Settings, log *slog.Logger) (*Registry, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if settings == nil {
		return nil, errors.New("settings are required")
	}
	if log == nil {
		log = slog.Default()
	}

	r := &Registry{
		transport: transport,
		settings:  settings,
		log:       log.With("component", "commands"),
		commands:  make(map[string]Command),
	}
	for _, cmd := range builtins() {
		if err := r.Register(cmd); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds a command. Names are case-insensitive and must be unique.
func (r *Registry) Register(cmd Command) error {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	if name == "" {
		return errors.New("command name is required")
	}
	if cmd.Run == nil {
		return fmt.Errorf("command %q has no run function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	cmd.Name = name
	r.commands[name] = cmd
	return nil
}

// Lookup returns a registered command by name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Names lists visible command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name, cmd := range r.commands {
		if cmd.Hidden {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run executes the named command. Categorised failures are reported to the
// sender before the error is returned.
func (r *Registry) Run(ctx context.Context, event chat.Event, name string, args ...string) error {
	inv := &Invocation{Event: event, Name: strings.ToLower(name), Args: args, registry: r}

	cmd, ok := r.Lookup(name)
	if !ok {
		err := NewError(ErrorUnknownCommand, name)
		r.replyFailure(ctx, inv, fmt.Sprintf("%s: unknown command %s", event.Sender.FullName, name))
		return err
	}

	r.log.Debug("Running command", "command", cmd.Name, "args", len(args), "conversation_id", event.ConversationID)
	if err := cmd.Run(ctx, inv); err != nil {
		if CategoryFromError(err) != ErrorInternal {
			r.replyFailure(ctx, inv, fmt.Sprintf("%s: %s", event.Sender.FullName, userMessage(err)))
		}
		return fmt.Errorf("run %s: %w", cmd.Name, err)
	}

	return nil
}

func (r *Registry) replyFailure(ctx context.Context, inv *Invocation, text string) {
	if err := inv.Reply(ctx, text); err != nil {
		r.log.Warn("Failed to send command reply", "command", inv.Name, "error", err)
	}
}
