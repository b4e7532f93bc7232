package chat

import "strings"

// SegmentKind enumerates the closed set of rich-text segment variants.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentLink
	SegmentLineBreak
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentText:
		return "text"
	case SegmentLink:
		return "link"
	case SegmentLineBreak:
		return "line_break"
	default:
		return "unknown"
	}
}

// Segment is one atomic piece of rich text. Target is only meaningful for
// links; Text is empty for line breaks.
type Segment struct {
	Kind   SegmentKind `json:"kind"`
	Text   string      `json:"text,omitempty"`
	Target string      `json:"target,omitempty"`
	Bold   bool        `json:"bold,omitempty"`
	Italic bool        `json:"italic,omitempty"`
}

// Text returns a plain text segment.
func Text(text string) Segment {
	return Segment{Kind: SegmentText, Text: text}
}

// BoldText returns a bold text segment.
func BoldText(text string) Segment {
	return Segment{Kind: SegmentText, Text: text, Bold: true}
}

// Link returns a hyperlink segment.
func Link(text string, target string, bold bool) Segment {
	return Segment{Kind: SegmentLink, Text: text, Target: target, Bold: bold}
}

// LineBreak returns a line break segment.
func LineBreak() Segment {
	return Segment{Kind: SegmentLineBreak, Text: "\n"}
}

// PlainText flattens segments into their visible text.
func PlainText(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case SegmentLineBreak:
			b.WriteByte('\n')
		default:
			b.WriteString(seg.Text)
		}
	}

	return b.String()
}
