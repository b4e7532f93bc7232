package channel

import (
	"context"
	"errors"
	"testing"

	"relaybot/pkg/chat"
)

type stubAdapter struct {
	name string
	sent []string
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Run(context.Context, Publisher) error { return nil }

func (a *stubAdapter) Conversation(_ context.Context, id string) (chat.Conversation, error) {
	return chat.Conversation{ID: id, Name: a.name}, nil
}

func (a *stubAdapter) Send(_ context.Context, conv chat.Conversation, segments []chat.Segment) error {
	a.sent = append(a.sent, conv.ID+"="+chat.PlainText(segments))
	return nil
}

func TestRouterRoutesByPrefix(t *testing.T) {
	t.Parallel()

	tg := &stubAdapter{name: "telegram"}
	console := &stubAdapter{name: "console"}
	router, err := NewRouter(tg, console)
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}

	conv, err := router.Conversation(context.Background(), "console:lobby")
	if err != nil {
		t.Fatalf("Conversation error: %v", err)
	}
	if conv.Name != "console" {
		t.Fatalf("conversation routed to %q, want console", conv.Name)
	}

	if err := SendText(context.Background(), router, chat.Conversation{ID: "telegram:1"}, "hi"); err != nil {
		t.Fatalf("SendText error: %v", err)
	}
	if len(tg.sent) != 1 || tg.sent[0] != "telegram:1=hi" {
		t.Fatalf("telegram sent = %v, want [telegram:1=hi]", tg.sent)
	}
	if len(console.sent) != 0 {
		t.Fatalf("console sent = %v, want none", console.sent)
	}
}

func TestRouterUnknownPrefix(t *testing.T) {
	t.Parallel()

	router, err := NewRouter(&stubAdapter{name: "telegram"})
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}

	for _, id := range []string{"irc:#go", "nocolon"} {
		if _, err := router.Conversation(context.Background(), id); !errors.Is(err, chat.ErrConversationNotFound) {
			t.Fatalf("Conversation(%q) error = %v, want ErrConversationNotFound", id, err)
		}
	}
}

func TestRouterRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	if _, err := NewRouter(&stubAdapter{name: "a"}, &stubAdapter{name: "a"}); err == nil {
		t.Fatal("expected duplicate adapter error")
	}
}

func TestRouterNames(t *testing.T) {
	t.Parallel()

	router, err := NewRouter(&stubAdapter{name: "telegram"}, &stubAdapter{name: "console"})
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}
	if got := router.Names(); got != "telegram,console" {
		t.Fatalf("Names = %q, want %q", got, "telegram,console")
	}
}

func TestSendMarkup(t *testing.T) {
	t.Parallel()

	a := &stubAdapter{name: "console"}
	if err := SendMarkup(context.Background(), a, chat.Conversation{ID: "console:x"}, "<i>hi <b>there</b></i>"); err != nil {
		t.Fatalf("SendMarkup error: %v", err)
	}
	if a.sent[0] != "console:x=hi there" {
		t.Fatalf("sent = %q, want %q", a.sent[0], "console:x=hi there")
	}
}
