package bus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"relaybot/pkg/chat"
)

func TestInboundRoundTrip(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	in := chat.Event{ID: "e1", ConversationID: "console:lobby", Text: "hello"}
	if ok := mb.PublishInbound(context.Background(), in); !ok {
		t.Fatal("expected inbound publish to succeed")
	}

	out, ok := mb.ConsumeInbound(context.Background())
	if !ok {
		t.Fatal("expected inbound consume to succeed")
	}
	if out.Text != in.Text {
		t.Fatalf("text = %q, want %q", out.Text, in.Text)
	}
}

func TestInboundPreservesOrder(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		mb.PublishInbound(ctx, chat.Event{ID: id})
	}
	for _, want := range []string{"1", "2", "3"} {
		got, ok := mb.ConsumeInbound(ctx)
		if !ok || got.ID != want {
			t.Fatalf("consume = %q (%v), want %q", got.ID, ok, want)
		}
	}
}

func TestOutboundRoundTrip(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	in := OutboundMessage{Channel: "console", ConversationID: "console:lobby", Segments: []chat.Segment{chat.Text("world")}}
	if ok := mb.PublishOutbound(context.Background(), in); !ok {
		t.Fatal("expected outbound publish to succeed")
	}

	out, ok := mb.SubscribeOutbound(context.Background())
	if !ok {
		t.Fatal("expected outbound subscribe to succeed")
	}
	if out.Text() != "world" {
		t.Fatalf("text = %q, want %q", out.Text(), "world")
	}
}

func TestOutboundDropsWhenFull(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	for i := 0; i < defaultBufferSize; i++ {
		if ok := mb.PublishOutbound(context.Background(), OutboundMessage{}); !ok {
			t.Fatalf("publish %d failed before buffer filled", i)
		}
	}

	start := time.Now()
	if ok := mb.PublishOutbound(context.Background(), OutboundMessage{}); ok {
		t.Fatal("expected publish to report drop on full buffer")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("publish outbound blocked on full buffer")
	}
}

func TestStoppedBusRejectsOperations(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		closed bool
	}{
		{name: "closed bus", ctx: context.Background(), closed: true},
		{name: "canceled context", ctx: canceled},
	}

	for _, tt := range tests {
		mb := NewMessageBus()
		if tt.closed {
			mb.Close()
		} else {
			t.Cleanup(mb.Close)
		}

		if ok := mb.PublishInbound(tt.ctx, chat.Event{ID: "telegram:1:1", Text: "hello"}); ok {
			t.Fatalf("%s: PublishInbound = true, want false", tt.name)
		}
		if _, ok := mb.ConsumeInbound(tt.ctx); ok {
			t.Fatalf("%s: ConsumeInbound = true, want false", tt.name)
		}
		if tt.closed {
			if ok := mb.PublishOutbound(tt.ctx, OutboundMessage{ConversationID: "console:lobby"}); ok {
				t.Fatalf("%s: PublishOutbound = true, want false", tt.name)
			}
			if _, ok := mb.SubscribeOutbound(tt.ctx); ok {
				t.Fatalf("%s: SubscribeOutbound = true, want false", tt.name)
			}
		}
	}
}

func TestAdaptersShareOneInboundQueue(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	const perAdapter = 10
	adapters := []string{"telegram", "console"}

	var wg sync.WaitGroup
	for _, name := range adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perAdapter {
				mb.PublishInbound(ctx, chat.Event{ID: fmt.Sprintf("%s:%d", name, i), ConversationID: name + ":room"})
			}
		}()
	}

	next := map[string]int{}
	for range perAdapter * len(adapters) {
		event, ok := mb.ConsumeInbound(ctx)
		if !ok {
			t.Fatal("ConsumeInbound stopped early")
		}
		name, seq, _ := strings.Cut(event.ID, ":")
		if want := strconv.Itoa(next[name]); seq != want {
			t.Fatalf("%s event %s arrived out of order, want sequence %s", name, event.ID, want)
		}
		next[name]++
	}
	wg.Wait()
}

func TestConsumeUnblocksOnClose(t *testing.T) {
	mb := NewMessageBus()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = mb.ConsumeInbound(context.Background())
	}()

	mb.Close()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("consume did not unblock after close")
	}
}

func TestEventFanout(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	eventsA, unsubA := mb.SubscribeEvents(ctx, 1)
	defer unsubA()
	eventsB, unsubB := mb.SubscribeEvents(ctx, 1)
	defer unsubB()

	event := Event{Type: EventBroadcast, EventID: "1"}
	if ok := mb.PublishEvent(ctx, event); !ok {
		t.Fatal("expected event publish to succeed")
	}

	for name, events := range map[string]<-chan Event{"A": eventsA, "B": eventsB} {
		select {
		case got := <-events:
			if got.Type != EventBroadcast {
				t.Fatalf("subscriber %s event type = %q, want %q", name, got.Type, EventBroadcast)
			}
			if got.At.IsZero() {
				t.Fatalf("subscriber %s event missing timestamp", name)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("subscriber %s did not receive event", name)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublishEvent(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	events, unsubscribe := mb.SubscribeEvents(ctx, 1)
	defer unsubscribe()

	if ok := mb.PublishEvent(ctx, Event{Type: EventForwarded}); !ok {
		t.Fatal("expected first event publish to succeed")
	}

	start := time.Now()
	if ok := mb.PublishEvent(ctx, Event{Type: EventAutoreply}); !ok {
		t.Fatal("expected second event publish to succeed")
	}

	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("publish event blocked on slow subscriber")
	}

	select {
	case <-events:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected at least one event")
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	events, unsubscribe := mb.SubscribeEvents(ctx, 1)
	unsubscribe()

	if ok := mb.PublishEvent(ctx, Event{Type: EventMention}); !ok {
		t.Fatal("expected event publish to succeed")
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected closed event channel")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event channel close after unsubscribe")
	}
}

func TestSubscribeEventsUnblocksOnClose(t *testing.T) {
	mb := NewMessageBus()

	events, _ := mb.SubscribeEvents(context.Background(), 1)
	mb.Close()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected event channel to be closed")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("event subscription did not unblock after close")
	}
}
