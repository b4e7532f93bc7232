package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"relaybot/pkg/chat"
)

func builtins() []Command {
	return []Command{
		{Name: "help", Usage: "help [command]", Help: "list commands or show one command's usage", Run: runHelp},
		{Name: "ping", Usage: "ping", Help: "check that the bot is alive", Run: runPing},
		{Name: "echo", Usage: "echo <text>", Help: "repeat text back", Run: runEcho},
		{Name: "whoami", Usage: "whoami", Help: "show your name and id", Run: runWhoami},
		{Name: "rooms", Usage: "rooms", Help: "list synced rooms", Run: runRooms},
		{Name: "mention", Usage: "mention <name>", Help: "announce an @mention", Run: runMention, Hidden: true},
	}
}

func runHelp(ctx context.Context, inv *Invocation) error {
	if len(inv.Args) > 0 {
		cmd, ok := inv.registry.Lookup(inv.Args[0])
		if !ok || cmd.Hidden {
			return NewError(ErrorUnknownCommand, "unknown command "+inv.Args[0])
		}
		return inv.Reply(ctx, fmt.Sprintf("%s: %s", cmd.Usage, cmd.Help))
	}

	return inv.Reply(ctx, "Commands: "+strings.Join(inv.registry.Names(), ", "))
}

func runPing(ctx context.Context, inv *Invocation) error {
	return inv.Reply(ctx, "pong")
}

func runEcho(ctx context.Context, inv *Invocation) error {
	if len(inv.Args) == 0 {
		return Usage("echo <text>")
	}

	return inv.Reply(ctx, strings.Join(inv.Args, " "))
}

func runWhoami(ctx context.Context, inv *Invocation) error {
	sender := inv.Event.Sender
	return inv.Reply(ctx, fmt.Sprintf("%s (id %s)", sender.FullName, sender.ID))
}

func runRooms(ctx context.Context, inv *Invocation) error {
	rooms := inv.registry.settings.BroadcastRooms()
	if len(rooms) == 0 {
		return inv.Reply(ctx, "No synced rooms configured.")
	}

	segments := []chat.Segment{chat.BoldText("Synced rooms:")}
	for _, id := range rooms {
		segments = append(segments, chat.LineBreak())

		conv, err := inv.registry.transport.Conversation(ctx, id)
		switch {
		case errors.Is(err, chat.ErrConversationNotFound):
			segments = append(segments, chat.Text(id+" (unavailable)"))
		case err != nil:
			return NewError(ErrorUnavailable, "room lookup failed")
		case conv.Name != "":
			segments = append(segments, chat.Text(fmt.Sprintf("%s (%s)", conv.Name, id)))
		default:
			segments = append(segments, chat.Text(id))
		}
	}

	return inv.send(ctx, segments)
}

// runMention announces an @mention in the conversation when mentions are
// enabled there. An empty name is ignored.
func runMention(ctx context.Context, inv *Invocation) error {
	if len(inv.Args) == 0 || strings.TrimSpace(inv.Args[0]) == "" {
		return nil
	}
	if !inv.registry.settings.MentionsEnabled(inv.Event.ConversationID) {
		return nil
	}

	return inv.ReplyMarkup(ctx, fmt.Sprintf("<i>%s is looking for <b>@%s</b></i>", inv.Event.Sender.FullName, inv.Args[0]))
}
