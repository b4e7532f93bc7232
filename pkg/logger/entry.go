package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Entry is one JSON log line. The keys every relay log line is filtered by
// are lifted out of Fields.
type Entry struct {
	Time           string         `json:"time"`
	Level          string         `json:"level"`
	Component      string         `json:"component,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
	EventID        string         `json:"event_id,omitempty"`
	Message        string         `json:"msg"`
	Fields         map[string]any `json:"fields,omitempty"`
	Caller         string         `json:"caller,omitempty"`
}

type boundAttr struct {
	prefix string
	attr   slog.Attr
}

type entryHandler struct {
	level     slog.Level
	addSource bool
	writer    io.Writer
	mu        *sync.Mutex
	bound     []boundAttr
	prefix    string
}

func newEntryHandler(writer io.Writer, level slog.Level, addSource bool) *entryHandler {
	return &entryHandler{level: level, addSource: addSource, writer: writer, mu: &sync.Mutex{}}
}

func (h *entryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *entryHandler) Handle(_ context.Context, record slog.Record) error {
	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}

	entry := Entry{
		Time:    when.UTC().Format(time.RFC3339Nano),
		Level:   strings.ToLower(record.Level.String()),
		Message: record.Message,
		Fields:  make(map[string]any),
	}
	for _, b := range h.bound {
		entry.add(b.prefix, b.attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		entry.add(h.prefix, attr)
		return true
	})
	if len(entry.Fields) == 0 {
		entry.Fields = nil
	}
	if h.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		if frame.File != "" {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.writer.Write(append(line, '\n'))
	return err
}

func (h *entryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = make([]boundAttr, 0, len(h.bound)+len(attrs))
	next.bound = append(next.bound, h.bound...)
	for _, attr := range attrs {
		next.bound = append(next.bound, boundAttr{prefix: h.prefix, attr: attr})
	}
	return &next
}

func (h *entryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// add flattens attr into the entry. Groups become dotted keys; top-level
// component, conversation_id and event_id strings fill the dedicated fields.
func (e *Entry) add(prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, item := range attr.Value.Group() {
			e.add(inner, item)
		}
		return
	}

	if prefix == "" && attr.Value.Kind() == slog.KindString {
		switch attr.Key {
		case "component":
			e.Component = attr.Value.String()
			return
		case "conversation_id":
			e.ConversationID = attr.Value.String()
			return
		case "event_id":
			e.EventID = attr.Value.String()
			return
		}
	}

	e.Fields[prefix+attr.Key] = jsonValue(attr.Value)
}

func jsonValue(value slog.Value) any {
	switch value.Kind() {
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return err.Error()
		}
		return value.Any()
	default:
		return value.Any()
	}
}
