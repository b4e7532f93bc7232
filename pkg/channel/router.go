package channel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"relaybot/pkg/chat"
)

// Router is a Transport over several adapters. Conversation ids are routed by
// their "<adapter name>:" prefix.
type Router struct {
	adapters map[string]Adapter
	order    []Adapter
}

// NewRouter indexes adapters by name. Duplicate names are rejected.
func NewRouter(adapters ...Adapter) (*Router, error) {
	r := &Router{adapters: make(map[string]Adapter, len(adapters))}
	for _, adapter := range adapters {
		if adapter == nil {
			return nil, errors.New("nil adapter")
		}
		name := adapter.Name()
		if _, exists := r.adapters[name]; exists {
			return nil, fmt.Errorf("duplicate adapter %q", name)
		}
		r.adapters[name] = adapter
		r.order = append(r.order, adapter)
	}

	return r, nil
}

// Adapters returns the routed adapters in registration order.
func (r *Router) Adapters() []Adapter {
	return append([]Adapter(nil), r.order...)
}

// Names joins adapter names for logging.
func (r *Router) Names() string {
	names := make([]string, 0, len(r.order))
	for _, adapter := range r.order {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}

func (r *Router) Conversation(ctx context.Context, id string) (chat.Conversation, error) {
	adapter, ok := r.route(id)
	if !ok {
		return chat.Conversation{}, fmt.Errorf("%w: %s", chat.ErrConversationNotFound, id)
	}

	return adapter.Conversation(ctx, id)
}

func (r *Router) Send(ctx context.Context, conv chat.Conversation, segments []chat.Segment) error {
	adapter, ok := r.route(conv.ID)
	if !ok {
		return fmt.Errorf("%w: %s", chat.ErrConversationNotFound, conv.ID)
	}

	return adapter.Send(ctx, conv, segments)
}

func (r *Router) route(id string) (Adapter, bool) {
	name, _, found := strings.Cut(id, ":")
	if !found {
		return nil, false
	}

	adapter, ok := r.adapters[name]
	return adapter, ok
}

// ConversationID builds the routed id for a transport-local conversation key.
func ConversationID(adapter string, key string) string {
	return adapter + ":" + strings.TrimSpace(key)
}
