package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"relaybot/pkg/bus"
	"relaybot/pkg/channel"
	"relaybot/pkg/chat"
	"relaybot/pkg/commands"
	"relaybot/pkg/config"
	"relaybot/pkg/dispatcher"
	"relaybot/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultHealthHost = "0.0.0.0"
	defaultHealthPort = 18790
)

// EventHandler consumes dispatched events one at a time.
type EventHandler interface {
	Handle(ctx context.Context, event chat.Event)
}

// Option customises a Service.
type Option func(*Service)

// WithoutStatusServer disables the /healthz, /readyz and /metrics listener.
func WithoutStatusServer() Option {
	return func(s *Service) {
		s.serveStatus = false
	}
}

// Service runs channel adapters, queues their events on the bus and feeds
// them to the dispatcher from a single goroutine.
type Service struct {
	cfg         *config.Config
	log         *slog.Logger
	messages    *bus.MessageBus
	router      *channel.Router
	handler     EventHandler
	channels    []channel.Adapter
	serveStatus bool

	mu            sync.RWMutex
	startedAt     time.Time
	lastEventAt   time.Time
	dispatched    uint64
	channelStates map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status           string                  `json:"status"`
	UptimeSeconds    int64                   `json:"uptime_seconds"`
	EventsDispatched uint64                  `json:"events_dispatched"`
	LastEventAt      string                  `json:"last_event_at,omitempty"`
	Channels         map[string]channelState `json:"channels"`
}

// NewService wires the router, command registry and dispatcher for adapters.
func NewService(cfg *config.Config, adapters []channel.Adapter, messages *bus.MessageBus, log *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if messages == nil {
		return nil, errors.New("message bus is required")
	}
	if log == nil {
		log = slog.Default()
	}

	router, err := channel.NewRouter(adapters...)
	if err != nil {
		return nil, fmt.Errorf("build channel router: %w", err)
	}

	registry, err := commands.NewRegistry(router, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build command registry: %w", err)
	}

	d, err := dispatcher.New(cfg, router, registry, log, dispatcher.WithActivity(messages))
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	return newService(cfg, router, d, messages, log, opts...)
}

func newService(cfg *config.Config, router *channel.Router, handler EventHandler, messages *bus.MessageBus, log *slog.Logger, opts ...Option) (*Service, error) {
	adapters := router.Adapters()
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	s := &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		messages:      messages,
		router:        router,
		handler:       handler,
		channels:      adapters,
		serveStatus:   true,
		channelStates: channelStates,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run blocks until ctx ends or an adapter or the status server fails. The
// dispatch loop has stopped by the time Run returns.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		s.dispatchLoop(runCtx)
	}()

	errCh := make(chan error, len(s.channels))
	for _, adapter := range s.channels {
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(runCtx, s.publish)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	serverErrors := make(chan error, 1)
	if s.serveStatus {
		go s.runStatusServer(runCtx, serverErrors)
	}

	s.log.Info("Gateway started", "channels", s.router.Names())

	var err error
	select {
	case <-ctx.Done():
	case err = <-serverErrors:
	case err = <-errCh:
	}

	cancel()
	<-dispatchDone
	return err
}

// publish is handed to every adapter. It blocks while the inbound queue is
// full so events are never dropped silently.
func (s *Service) publish(ctx context.Context, event chat.Event) {
	metrics.EventsReceived.WithLabelValues(channelOf(event.ConversationID)).Inc()
	if !s.messages.PublishInbound(ctx, event) {
		s.log.Warn("Dropped inbound event", "event_id", event.ID, "conversation_id", event.ConversationID)
	}
}

func (s *Service) dispatchLoop(ctx context.Context) {
	for {
		event, ok := s.messages.ConsumeInbound(ctx)
		if !ok {
			return
		}

		s.handler.Handle(ctx, event)

		s.mu.Lock()
		s.dispatched++
		s.lastEventAt = time.Now().UTC()
		s.mu.Unlock()
	}
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHealthHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultHealthPort
	}

	addr := host + ":" + strconv.Itoa(port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.statusHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) statusHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	lastEvent := ""
	if !s.lastEventAt.IsZero() {
		lastEvent = s.lastEventAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:           status,
		UptimeSeconds:    uptime,
		EventsDispatched: s.dispatched,
		LastEventAt:      lastEvent,
		Channels:         channels,
	}
}

// isReady reports whether at least one channel adapter is running.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func channelOf(conversationID string) string {
	name, _, found := strings.Cut(conversationID, ":")
	if !found {
		return "unknown"
	}

	return name
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
