// Package dispatcher decides which bot behaviors apply to an inbound
// conversation event and runs them.
//
// A command event (first token equal to the command prefix) is handled by the
// command handler alone. Every other event runs through the mention, forward,
// broadcast, autoreply and action handlers in that order.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"relaybot/pkg/bus"
	"relaybot/pkg/channel"
	"relaybot/pkg/chat"
	"relaybot/pkg/config"
	"relaybot/pkg/metrics"
)

// ConfigView is the typed, read-only configuration the dispatcher consults.
// Lookups never fail; missing values read as disabled or empty.
type ConfigView interface {
	CommandPrefix() string
	ProfileURL(userID string) string
	CommandsEnabled(conversationID string) bool
	AdminCommands(conversationID string) []string
	Admins(conversationID string) []string
	ForwardingEnabled(conversationID string) bool
	ForwardTo(conversationID string) []string
	BroadcastEnabled() bool
	BroadcastRooms() []string
	AutorepliesEnabled(conversationID string) bool
	Autoreplies(conversationID string) []config.Autoreply
}

// CommandRunner executes bot commands. The dispatcher does not interpret its
// result beyond logging errors.
type CommandRunner interface {
	Run(ctx context.Context, event chat.Event, name string, args ...string) error
}

// ActivityPublisher receives a record of every handler that fired.
type ActivityPublisher interface {
	PublishEvent(ctx context.Context, event bus.Event) bool
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithRandom replaces the source used by the dice and coin actions. intN must
// return a value in [0, n).
func WithRandom(intN func(n int) int) Option {
	return func(d *Dispatcher) {
		if intN != nil {
			d.intN = intN
		}
	}
}

// WithActivity publishes handler activity to p.
func WithActivity(p ActivityPublisher) Option {
	return func(d *Dispatcher) {
		d.activity = p
	}
}

type Dispatcher struct {
	cfg       ConfigView
	transport channel.Transport
	commands  CommandRunner
	activity  ActivityPublisher
	intN      func(n int) int
	log       *slog.Logger

	// lastBroadcastID is the id of the most recently broadcast event; empty
	// means none, and empty event ids are never recorded. Only the broadcast
	// handler touches it.
	broadcastMu     sync.Mutex
	lastBroadcastID string
}

func New(cfg ConfigView, transport channel.Transport, commands CommandRunner, log *slog.Logger, opts ...Option) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if commands == nil {
		return nil, errors.New("command runner is required")
	}
	if log == nil {
		log = slog.Default()
	}

	d := &Dispatcher{
		cfg:       cfg,
		transport: transport,
		commands:  commands,
		intN:      rand.IntN,
		log:       log.With("component", "dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Handle applies the handler pipeline to one event. Failures are logged and
// never abort sibling handlers or destinations.
func (d *Dispatcher) Handle(ctx context.Context, event chat.Event) {
	if event.Sender.IsSelf || strings.TrimSpace(event.Text) == "" {
		metrics.EventsDispatched.WithLabelValues("skipped").Inc()
		return
	}

	start := time.Now()
	defer func() {
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	d.log.Debug("Handling event",
		"event_id", event.ID,
		"conversation_id", event.ConversationID,
		"sender_id", event.Sender.ID,
		"segments", len(event.Segments),
		"attachments", len(event.Attachments),
	)

	if strings.EqualFold(event.FirstToken(), d.cfg.CommandPrefix()) {
		metrics.EventsDispatched.WithLabelValues("command").Inc()
		d.handleCommand(ctx, event)
		return
	}

	metrics.EventsDispatched.WithLabelValues("pipeline").Inc()
	d.handleMention(ctx, event)
	d.handleForward(ctx, event)
	d.handleBroadcast(ctx, event)
	d.handleAutoreply(ctx, event)
	d.handleAction(ctx, event)
}

// reply sends segments back into the event's own conversation.
func (d *Dispatcher) reply(ctx context.Context, event chat.Event, segments []chat.Segment) {
	d.deliver(ctx, event.ConversationID, segments)
}

func (d *Dispatcher) replyText(ctx context.Context, event chat.Event, text string) {
	d.reply(ctx, event, []chat.Segment{chat.Text(text)})
}

// deliver resolves a conversation id and sends to it. Unknown ids are skipped
// quietly; transport errors are logged.
func (d *Dispatcher) deliver(ctx context.Context, conversationID string, segments []chat.Segment) bool {
	conv, err := d.transport.Conversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			metrics.SendFailures.WithLabelValues("not_found").Inc()
			d.log.Debug("Skipping unknown conversation", "conversation_id", conversationID)
			return false
		}
		metrics.SendFailures.WithLabelValues("transport").Inc()
		d.log.Warn("Failed to resolve conversation", "conversation_id", conversationID, "error", err)
		return false
	}

	if err := d.transport.Send(ctx, conv, segments); err != nil {
		reason := "transport"
		if errors.Is(err, chat.ErrConversationNotFound) {
			reason = "not_found"
		}
		metrics.SendFailures.WithLabelValues(reason).Inc()
		d.log.Warn("Failed to send message", "conversation_id", conversationID, "error", err)
		return false
	}

	return true
}

func (d *Dispatcher) emit(ctx context.Context, kind bus.EventType, event chat.Event, payload map[string]string) {
	metrics.HandlerFired.WithLabelValues(string(kind)).Inc()
	if d.activity == nil {
		return
	}

	d.activity.PublishEvent(ctx, bus.Event{
		Type:           kind,
		ConversationID: event.ConversationID,
		EventID:        event.ID,
		Payload:        payload,
	})
}
