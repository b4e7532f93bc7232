package dispatcher

import (
	"context"
	"slices"
	"strconv"

	"relaybot/pkg/bus"
	"relaybot/pkg/chat"
	"relaybot/pkg/metrics"
)

// handleForward copies the event to every forward_to destination, including
// the source conversation when it is listed.
func (d *Dispatcher) handleForward(ctx context.Context, event chat.Event) {
	if !d.cfg.ForwardingEnabled(event.ConversationID) {
		return
	}

	destinations := d.cfg.ForwardTo(event.ConversationID)
	if len(destinations) == 0 {
		return
	}

	segments := d.relaySegments(event)
	sent := 0
	for _, dst := range destinations {
		if d.deliver(ctx, dst, slices.Clone(segments)) {
			sent++
		}
	}

	d.emit(ctx, bus.EventForwarded, event, map[string]string{"sent": strconv.Itoa(sent)})
}

// handleBroadcast relays events from a synced room to every other synced room.
// The event id is recorded before the membership test so a later echo of the
// same event is suppressed wherever it is observed.
func (d *Dispatcher) handleBroadcast(ctx context.Context, event chat.Event) {
	if !d.cfg.BroadcastEnabled() {
		return
	}

	rooms := d.cfg.BroadcastRooms()
	if len(rooms) == 0 {
		return
	}

	if !d.markBroadcast(event.ID) {
		metrics.BroadcastDuplicates.Inc()
		d.log.Debug("Event already broadcast", "event_id", event.ID)
		return
	}

	if !slices.Contains(rooms, event.ConversationID) {
		return
	}

	segments := d.relaySegments(event)
	sent := 0
	for _, dst := range rooms {
		if dst == event.ConversationID {
			continue
		}
		if d.deliver(ctx, dst, slices.Clone(segments)) {
			sent++
		}
	}

	d.emit(ctx, bus.EventBroadcast, event, map[string]string{"sent": strconv.Itoa(sent)})
}

// markBroadcast records id as the last broadcast event. It returns false when
// id was already the last one. Events without an id are never deduplicated.
func (d *Dispatcher) markBroadcast(id string) bool {
	if id == "" {
		return true
	}

	d.broadcastMu.Lock()
	defer d.broadcastMu.Unlock()

	if d.lastBroadcastID == id {
		return false
	}
	d.lastBroadcastID = id
	return true
}

// relaySegments prefixes the original message with a bold profile link to the
// sender and appends attachment links after a line break.
func (d *Dispatcher) relaySegments(event chat.Event) []chat.Segment {
	body := event.Segments
	if len(body) == 0 {
		body = []chat.Segment{chat.Text(event.Text)}
	}

	segments := make([]chat.Segment, 0, len(body)+len(event.Attachments)+3)
	segments = append(segments,
		chat.Link(event.Sender.FullName, d.cfg.ProfileURL(event.Sender.ID), true),
		chat.BoldText(": "),
	)
	segments = append(segments, body...)

	if len(event.Attachments) > 0 {
		segments = append(segments, chat.LineBreak())
		for _, link := range event.Attachments {
			segments = append(segments, chat.Link(link, link, false))
		}
	}

	return segments
}
