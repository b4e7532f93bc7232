package telegram

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

const (
	defaultSendRate  = 1
	defaultSendBurst = 5
)

// limiterPool holds one send limiter per chat.
type limiterPool struct {
	mu    sync.Mutex
	m     map[int64]*rate.Limiter
	rps   float64
	burst int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = defaultSendRate
	}
	if burst <= 0 {
		burst = defaultSendBurst
	}

	return &limiterPool{m: make(map[int64]*rate.Limiter), rps: rps, burst: burst}
}

func (p *limiterPool) get(chatID int64) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[chatID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[chatID] = l
	return l
}

// wait blocks until the chat may send again or ctx is done.
func (p *limiterPool) wait(ctx context.Context, chatID int64) error {
	return p.get(chatID).Wait(ctx)
}
