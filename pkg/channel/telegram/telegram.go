package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"relaybot/pkg/channel"
	"relaybot/pkg/chat"
	"relaybot/pkg/config"
	"relaybot/pkg/metrics"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240

// botAPI is the subset of *telego.Bot used after startup.
type botAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	GetChat(ctx context.Context, params *telego.GetChatParams) (*telego.ChatFullInfo, error)
}

// Adapter bridges Telegram updates into conversation events and delivers
// dispatcher output back to Telegram chats.
type Adapter struct {
	cfg       config.TelegramConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
	bot       *telego.Bot
	api       botAPI
	limiters  *limiterPool

	mu     sync.RWMutex
	selfID int64
	chats  map[int64]chat.Conversation
}

// NewAdapter validates Telegram configuration and constructs an adapter instance.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("channels.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	a := newAdapter(cfg, bot, log)
	a.bot = bot
	return a, nil
}

func newAdapter(cfg config.TelegramConfig, api botAPI, log *slog.Logger) *Adapter {
	return &Adapter{
		cfg:       cfg,
		allowFrom: allowFromSet(cfg.AllowFrom),
		log:       log.With("component", "channel.telegram"),
		api:       api,
		limiters:  newLimiterPool(cfg.SendRate, cfg.SendBurst),
		chats:     make(map[int64]chat.Conversation),
	}
}

// Name returns the channel identifier used as the conversation id prefix.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and publishes every accepted message.
func (a *Adapter) Run(ctx context.Context, publish channel.Publisher) error {
	if publish == nil {
		return errors.New("publisher is required")
	}
	if a.bot == nil {
		return errors.New("telegram bot is not initialized")
	}

	me, err := a.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot identity: %w", err)
	}
	a.mu.Lock()
	a.selfID = me.ID
	a.mu.Unlock()

	updates, err := a.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started", "bot", me.Username)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			message := update.Message
			if message == nil {
				continue
			}

			event, ok := a.toEvent(message)
			if !ok {
				continue
			}
			if !a.senderAllowed(event.Sender.ID) {
				a.log.Debug("Ignoring message from unauthorized sender", "sender_id", event.Sender.ID)
				continue
			}

			a.log.Info("Received message", "conversation_id", event.ConversationID, "sender_id", event.Sender.ID, "event_id", event.ID, "content", previewText(event.Text))
			publish(ctx, event)
		}
	}
}

// toEvent converts a Telegram message. Messages without a sender or any text
// are dropped.
func (a *Adapter) toEvent(message *telego.Message) (chat.Event, bool) {
	if message.From == nil {
		a.log.Debug("Ignoring message without sender")
		return chat.Event{}, false
	}

	text, entities := message.Text, message.Entities
	if text == "" {
		text, entities = message.Caption, message.CaptionEntities
	}
	if strings.TrimSpace(text) == "" {
		return chat.Event{}, false
	}

	a.rememberChat(message.Chat)

	a.mu.RLock()
	isSelf := a.selfID != 0 && message.From.ID == a.selfID
	a.mu.RUnlock()

	conversationID := channel.ConversationID(channelName, strconv.FormatInt(message.Chat.ID, 10))
	return chat.Event{
		ID:             fmt.Sprintf("%s:%d", conversationID, message.MessageID),
		ConversationID: conversationID,
		Sender: chat.User{
			ID:       strconv.FormatInt(message.From.ID, 10),
			FullName: userName(message.From),
			IsSelf:   isSelf,
		},
		Text:        text,
		Segments:    segmentsFromEntities(text, entities),
		Attachments: attachmentLinks(message),
		IsAction:    strings.HasPrefix(text, "/me"),
	}, true
}

// Conversation resolves a telegram:<chat id> conversation, preferring chats
// already seen in updates.
func (a *Adapter) Conversation(ctx context.Context, id string) (chat.Conversation, error) {
	chatID, err := parseConversationID(id)
	if err != nil {
		return chat.Conversation{}, err
	}

	a.mu.RLock()
	conv, ok := a.chats[chatID]
	a.mu.RUnlock()
	if ok {
		return conv, nil
	}

	info, err := a.api.GetChat(ctx, &telego.GetChatParams{ChatID: tu.ID(chatID)})
	if err != nil {
		var apiErr *telegoapi.Error
		if errors.As(err, &apiErr) && (apiErr.ErrorCode == 400 || apiErr.ErrorCode == 403) {
			return chat.Conversation{}, fmt.Errorf("%w: %s", chat.ErrConversationNotFound, id)
		}
		return chat.Conversation{}, fmt.Errorf("get telegram chat %d: %w", chatID, err)
	}

	conv = chat.Conversation{ID: id, Name: chatTitle(info.Title, info.FirstName, info.LastName, info.Username)}
	a.mu.Lock()
	a.chats[chatID] = conv
	a.mu.Unlock()

	return conv, nil
}

// Send renders segments as Telegram HTML and delivers them, waiting for the
// chat's send limiter first.
func (a *Adapter) Send(ctx context.Context, conv chat.Conversation, segments []chat.Segment) error {
	chatID, err := parseConversationID(conv.ID)
	if err != nil {
		return err
	}

	text := renderHTML(segments)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if err := a.limiters.wait(ctx, chatID); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	a.log.Info("Sending message", "conversation_id", conv.ID, "content", previewText(chat.PlainText(segments)))
	params := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if _, err := a.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	metrics.MessagesSent.WithLabelValues(channelName).Inc()
	return nil
}

func (a *Adapter) rememberChat(c telego.Chat) {
	conv := chat.Conversation{
		ID:   channel.ConversationID(channelName, strconv.FormatInt(c.ID, 10)),
		Name: chatTitle(c.Title, c.FirstName, c.LastName, c.Username),
	}

	a.mu.Lock()
	a.chats[c.ID] = conv
	a.mu.Unlock()
}

func parseConversationID(id string) (int64, error) {
	key, found := strings.CutPrefix(id, channelName+":")
	if !found {
		return 0, fmt.Errorf("%w: %s", chat.ErrConversationNotFound, id)
	}

	chatID, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", chat.ErrConversationNotFound, id)
	}

	return chatID, nil
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted.
func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

func userName(u *telego.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}

	return strconv.FormatInt(u.ID, 10)
}

func chatTitle(title, firstName, lastName, username string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName)); name != "" {
		return name
	}

	return strings.TrimSpace(username)
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	cut := messagePreviewLimit
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}

	return trimmed[:cut] + "..."
}
