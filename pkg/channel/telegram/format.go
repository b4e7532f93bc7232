package telegram

import (
	"cmp"
	"fmt"
	"html"
	"slices"
	"strings"
	"unicode/utf16"

	"relaybot/pkg/chat"

	"github.com/mymmrac/telego"
)

// segmentsFromEntities splits text at bold, italic and link entities.
// Entity offsets count UTF-16 code units. Overlapping entities after the
// first are dropped.
func segmentsFromEntities(text string, entities []telego.MessageEntity) []chat.Segment {
	if text == "" {
		return nil
	}

	units := utf16.Encode([]rune(text))
	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b telego.MessageEntity) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	var segments []chat.Segment
	pos := 0
	plain := func(end int) {
		if end > pos {
			segments = append(segments, chat.Text(string(utf16.Decode(units[pos:end]))))
		}
	}

	for _, entity := range sorted {
		start, end := entity.Offset, entity.Offset+entity.Length
		if entity.Length <= 0 || start < pos || end > len(units) {
			continue
		}

		part := string(utf16.Decode(units[start:end]))
		var segment chat.Segment
		switch entity.Type {
		case telego.EntityTypeBold:
			segment = chat.BoldText(part)
		case telego.EntityTypeItalic:
			segment = chat.Segment{Kind: chat.SegmentText, Text: part, Italic: true}
		case telego.EntityTypeURL:
			segment = chat.Link(part, part, false)
		case telego.EntityTypeTextLink:
			segment = chat.Link(part, entity.URL, false)
		default:
			continue
		}

		plain(start)
		segments = append(segments, segment)
		pos = end
	}
	plain(len(units))

	return segments
}

// attachmentLinks returns a public t.me link for media posted in a chat with
// a username. Private chats have no shareable link.
func attachmentLinks(message *telego.Message) []string {
	if message.Chat.Username == "" || !hasMedia(message) {
		return nil
	}

	return []string{fmt.Sprintf("https://t.me/%s/%d", message.Chat.Username, message.MessageID)}
}

func hasMedia(message *telego.Message) bool {
	return len(message.Photo) > 0 ||
		message.Document != nil ||
		message.Video != nil ||
		message.Animation != nil ||
		message.Audio != nil ||
		message.Voice != nil ||
		message.Sticker != nil
}

// renderHTML renders segments using Telegram's HTML parse mode.
func renderHTML(segments []chat.Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		if segment.Kind == chat.SegmentLineBreak {
			b.WriteString("\n")
			continue
		}

		text := html.EscapeString(segment.Text)
		if segment.Kind == chat.SegmentLink && segment.Target != "" {
			text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(segment.Target), text)
		}
		if segment.Italic {
			text = "<i>" + text + "</i>"
		}
		if segment.Bold {
			text = "<b>" + text + "</b>"
		}
		b.WriteString(text)
	}

	return b.String()
}
