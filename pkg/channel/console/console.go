// Package console implements an in-process transport used by the terminal UI
// to try dispatch rules without a chat network.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"relaybot/pkg/bus"
	"relaybot/pkg/channel"
	"relaybot/pkg/chat"
	"relaybot/pkg/config"
	"relaybot/pkg/metrics"
)

const channelName = "console"

var defaultRooms = []string{"lobby", "ops"}

// Adapter serves a fixed set of named rooms. Messages typed by the local user
// become events; messages sent by the bot are published to the bus outbound
// queue as the room transcript.
type Adapter struct {
	bus   *bus.MessageBus
	log   *slog.Logger
	user  chat.User
	rooms []chat.Conversation
	byID  map[string]chat.Conversation
	input chan chat.Event

	mu  sync.Mutex
	seq uint64
}

// NewAdapter builds the console rooms from config.
func NewAdapter(cfg config.ConsoleConfig, messages *bus.MessageBus, log *slog.Logger) (*Adapter, error) {
	if messages == nil {
		return nil, errors.New("message bus is required")
	}
	if log == nil {
		log = slog.Default()
	}

	names := cfg.Rooms
	if len(names) == 0 {
		names = defaultRooms
	}

	a := &Adapter{
		bus:   messages,
		log:   log.With("component", "channel.console"),
		byID:  make(map[string]chat.Conversation, len(names)),
		input: make(chan chat.Event, 16),
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		conv := chat.Conversation{ID: channel.ConversationID(channelName, name), Name: name}
		if _, exists := a.byID[conv.ID]; exists {
			return nil, fmt.Errorf("duplicate console room %q", name)
		}
		a.byID[conv.ID] = conv
		a.rooms = append(a.rooms, conv)
	}
	if len(a.rooms) == 0 {
		return nil, errors.New("at least one console room is required")
	}

	userName := strings.TrimSpace(cfg.UserName)
	if userName == "" {
		userName = "You"
	}
	a.user = chat.User{ID: "local", FullName: userName}

	return a, nil
}

// Name returns the channel identifier used as the conversation id prefix.
func (a *Adapter) Name() string {
	return channelName
}

// Rooms lists the configured rooms in config order.
func (a *Adapter) Rooms() []chat.Conversation {
	return append([]chat.Conversation(nil), a.rooms...)
}

// User is the local sender every typed message is attributed to.
func (a *Adapter) User() chat.User {
	return a.user
}

// Run publishes typed messages until ctx ends.
func (a *Adapter) Run(ctx context.Context, publish channel.Publisher) error {
	if publish == nil {
		return errors.New("publisher is required")
	}

	a.log.Info("Console channel started", "rooms", len(a.rooms))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-a.input:
			publish(ctx, event)
		}
	}
}

// Say queues text typed by the local user into a room. Text starting with
// /me is flagged as an action.
func (a *Adapter) Say(ctx context.Context, roomID string, text string) (chat.Event, error) {
	if _, ok := a.byID[roomID]; !ok {
		return chat.Event{}, fmt.Errorf("%w: %s", chat.ErrConversationNotFound, roomID)
	}
	if strings.TrimSpace(text) == "" {
		return chat.Event{}, errors.New("message is empty")
	}

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	event := chat.Event{
		ID:             fmt.Sprintf("%s:%d", roomID, seq),
		ConversationID: roomID,
		Sender:         a.user,
		Text:           text,
		IsAction:       strings.HasPrefix(text, "/me"),
	}

	select {
	case <-ctx.Done():
		return chat.Event{}, ctx.Err()
	case a.input <- event:
		return event, nil
	}
}

// Conversation returns one of the configured rooms.
func (a *Adapter) Conversation(_ context.Context, id string) (chat.Conversation, error) {
	conv, ok := a.byID[id]
	if !ok {
		return chat.Conversation{}, fmt.Errorf("%w: %s", chat.ErrConversationNotFound, id)
	}

	return conv, nil
}

// Send appends a bot message to the room transcript.
func (a *Adapter) Send(ctx context.Context, conv chat.Conversation, segments []chat.Segment) error {
	if _, ok := a.byID[conv.ID]; !ok {
		return fmt.Errorf("%w: %s", chat.ErrConversationNotFound, conv.ID)
	}

	msg := bus.OutboundMessage{
		Channel:        channelName,
		ConversationID: conv.ID,
		Segments:       append([]chat.Segment(nil), segments...),
	}
	if !a.bus.PublishOutbound(ctx, msg) {
		return errors.New("console transcript is full")
	}

	metrics.MessagesSent.WithLabelValues(channelName).Inc()
	return nil
}
