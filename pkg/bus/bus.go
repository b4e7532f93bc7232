package bus

import (
	"context"
	"sync"

	"relaybot/pkg/chat"
)

const defaultBufferSize = 100

// MessageBus decouples transports from the dispatch loop. Inbound events are
// queued for a single consumer; outbound messages and activity events are
// published for observers.
type MessageBus struct {
	inbound  chan chat.Event
	outbound chan OutboundMessage

	eventSubscribers      map[uint64]chan Event
	nextEventSubscriberID uint64

	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:          make(chan chat.Event, defaultBufferSize),
		outbound:         make(chan OutboundMessage, defaultBufferSize),
		eventSubscribers: make(map[uint64]chan Event),
		done:             make(chan struct{}),
	}
}

// PublishInbound queues one conversation event. It blocks while the queue is
// full and returns false once ctx ends or the bus is closed.
func (mb *MessageBus) PublishInbound(ctx context.Context, event chat.Event) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	default:
	}

	select {
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	case mb.inbound <- event:
		return true
	}
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (chat.Event, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return chat.Event{}, false
	case <-mb.done:
		return chat.Event{}, false
	case event := <-mb.inbound:
		return event, true
	}
}

// PublishOutbound records a delivered message without blocking. The message
// is dropped when the outbound queue is full.
func (mb *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	default:
	}

	select {
	case mb.outbound <- msg:
		return true
	default:
		return false
	}
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return OutboundMessage{}, false
	case <-mb.done:
		return OutboundMessage{}, false
	case msg := <-mb.outbound:
		return msg, true
	}
}

func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		close(mb.done)

		mb.mu.Lock()
		for id, ch := range mb.eventSubscribers {
			close(ch)
			delete(mb.eventSubscribers, id)
		}
		mb.mu.Unlock()
	})
}
