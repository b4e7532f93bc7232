package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"relaybot/pkg/bus"
	"relaybot/pkg/chat"
)

const mentionCommand = "mention"

var (
	dicePhrases = []string{"roll dice", "rolls dice", "rolls a dice", "rolled a dice"}
	coinPhrases = []string{"flips a coin", "flips coin", "flip coin", "flipped a coin"}
)

// handleMention runs the mention command once per @token, in order.
func (d *Dispatcher) handleMention(ctx context.Context, event chat.Event) {
	for _, word := range strings.Fields(event.Text) {
		if !strings.HasPrefix(word, "@") {
			continue
		}

		name := cleanMention(word)
		d.emit(ctx, bus.EventMention, event, map[string]string{"name": name})
		if err := d.commands.Run(ctx, event, mentionCommand, name); err != nil {
			d.log.Warn("Mention command failed", "name", name, "conversation_id", event.ConversationID, "error", err)
		}
	}
}

// cleanMention drops every rune that is not a letter or a number.
func cleanMention(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, word)
}

func (d *Dispatcher) handleAutoreply(ctx context.Context, event chat.Event) {
	if !d.cfg.AutorepliesEnabled(event.ConversationID) {
		return
	}

	for _, entry := range d.cfg.Autoreplies(event.ConversationID) {
		for _, keyword := range entry.Keywords {
			if keyword != "*" && !WordInText(keyword, event.Text) {
				continue
			}

			d.emit(ctx, bus.EventAutoreply, event, map[string]string{"keyword": keyword})
			d.replyText(ctx, event, entry.Reply)
			break
		}
	}
}

// handleAction answers "/me" dice rolls and coin flips. Dice wins when both
// phrase families match.
func (d *Dispatcher) handleAction(ctx context.Context, event chat.Event) {
	if !strings.HasPrefix(event.Text, "/me") {
		return
	}

	var markup string
	switch {
	case containsAny(event.Text, dicePhrases):
		markup = fmt.Sprintf("<i>%s rolled <b>%d</b></i>", event.Sender.FullName, d.intN(6)+1)
	case containsAny(event.Text, coinPhrases):
		side := "heads"
		if d.intN(2) == 1 {
			side = "tails"
		}
		markup = fmt.Sprintf("<i>%s, the coin turned up <b>%s</b></i>", event.Sender.FullName, side)
	default:
		return
	}

	d.emit(ctx, bus.EventAction, event, nil)
	d.reply(ctx, event, chat.ParseMarkup(markup))
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	return false
}
