package dispatcher

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"relaybot/pkg/bus"
	"relaybot/pkg/chat"
	"relaybot/pkg/metrics"
)

func (d *Dispatcher) handleCommand(ctx context.Context, event chat.Event) {
	if !d.cfg.CommandsEnabled(event.ConversationID) {
		return
	}

	args := SplitWords(event.Text)
	if len(args) < 2 {
		d.replyText(ctx, event, fmt.Sprintf("%s: missing parameter(s)", event.Sender.FullName))
		return
	}

	name := args[1]
	if !d.mayRun(event, name) {
		metrics.CommandsDenied.Inc()
		d.log.Info("Refused restricted command", "command", name, "sender_id", event.Sender.ID, "conversation_id", event.ConversationID)
		d.emit(ctx, bus.EventCommandDenied, event, map[string]string{"command": name})
		d.replyText(ctx, event, fmt.Sprintf("%s: I'm sorry. I'm afraid I can't do that.", event.Sender.FullName))
		return
	}

	d.emit(ctx, bus.EventCommandRun, event, map[string]string{"command": name})
	if err := d.commands.Run(ctx, event, name, args[2:]...); err != nil {
		d.log.Warn("Command failed", "command", name, "conversation_id", event.ConversationID, "error", err)
	}
}

// mayRun reports whether the sender can run the named command here. Without
// an admin-restricted set every command is open.
func (d *Dispatcher) mayRun(event chat.Event, name string) bool {
	restricted := d.cfg.AdminCommands(event.ConversationID)
	if len(restricted) == 0 {
		return true
	}

	lowered := strings.ToLower(name)
	if !slices.ContainsFunc(restricted, func(cmd string) bool { return strings.ToLower(cmd) == lowered }) {
		return true
	}

	return slices.Contains(d.cfg.Admins(event.ConversationID), event.Sender.ID)
}
