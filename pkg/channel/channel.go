package channel

import (
	"context"

	"relaybot/pkg/chat"
)

// Publisher receives inbound events from an adapter.
type Publisher func(context.Context, chat.Event)

// Adapter bridges one external transport (for example Telegram) into relaybot.
type Adapter interface {
	Transport
	Name() string
	Run(context.Context, Publisher) error
}

// Transport resolves conversations and delivers rich-text messages to them.
type Transport interface {
	// Conversation returns chat.ErrConversationNotFound for unknown ids.
	Conversation(ctx context.Context, id string) (chat.Conversation, error)
	Send(ctx context.Context, conv chat.Conversation, segments []chat.Segment) error
}

// SendText delivers one plain text message.
func SendText(ctx context.Context, t Transport, conv chat.Conversation, text string) error {
	return t.Send(ctx, conv, []chat.Segment{chat.Text(text)})
}

// SendMarkup delivers a message written in the <b>/<i> inline markup.
func SendMarkup(ctx context.Context, t Transport, conv chat.Conversation, markup string) error {
	return t.Send(ctx, conv, chat.ParseMarkup(markup))
}
