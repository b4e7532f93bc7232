package bus

import "relaybot/pkg/chat"

// OutboundMessage records one message delivered by a transport. Only
// transports that keep a local transcript (the console) publish these.
type OutboundMessage struct {
	Channel        string         `json:"channel"`
	ConversationID string         `json:"conversation_id"`
	Segments       []chat.Segment `json:"segments"`
}

// Text flattens the message segments for display.
func (m OutboundMessage) Text() string {
	return chat.PlainText(m.Segments)
}
