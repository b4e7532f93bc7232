package chat

import (
	"errors"
	"strings"
)

// ErrConversationNotFound is returned by transports when a conversation id
// does not resolve to a known conversation.
var ErrConversationNotFound = errors.New("conversation not found")

// User identifies the sender of an event.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	IsSelf   bool   `json:"is_self,omitempty"`
}

// Conversation is a resolved handle for one room or chat.
type Conversation struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Event is one inbound conversation message. Events are treated as immutable
// once published.
type Event struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         User      `json:"sender"`
	Text           string    `json:"text"`
	Segments       []Segment `json:"segments,omitempty"`
	Attachments    []string  `json:"attachments,omitempty"`
	IsAction       bool      `json:"is_action,omitempty"`
}

// FirstToken returns the first whitespace-delimited token of the event text.
func (e Event) FirstToken() string {
	fields := strings.Fields(e.Text)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}
