package chat

import "strings"

// ParseMarkup converts the small inline markup used by bot replies into
// segments. Only <b> and <i> (and their closing tags) are recognised; any
// other angle-bracket text is kept verbatim. Newlines become line breaks.
func ParseMarkup(markup string) []Segment {
	var (
		segments []Segment
		buf      strings.Builder
		bold     int
		italic   int
	)

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		segments = append(segments, Segment{
			Kind:   SegmentText,
			Text:   buf.String(),
			Bold:   bold > 0,
			Italic: italic > 0,
		})
		buf.Reset()
	}

	for i := 0; i < len(markup); {
		if markup[i] == '\n' {
			flush()
			segments = append(segments, LineBreak())
			i++
			continue
		}

		if markup[i] == '<' {
			if tag, ok := markupTag(markup[i:]); ok {
				flush()
				switch tag {
				case "<b>":
					bold++
				case "</b>":
					bold = max(0, bold-1)
				case "<i>":
					italic++
				case "</i>":
					italic = max(0, italic-1)
				}
				i += len(tag)
				continue
			}
		}

		buf.WriteByte(markup[i])
		i++
	}
	flush()

	return segments
}

func markupTag(s string) (string, bool) {
	for _, tag := range []string{"<b>", "</b>", "<i>", "</i>"} {
		if len(s) >= len(tag) && strings.EqualFold(s[:len(tag)], tag) {
			return tag, true
		}
	}

	return "", false
}
