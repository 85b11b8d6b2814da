// Package ratelimit paces outbound batch requests with a token bucket per
// endpoint, so a large import does not flood the persistence API.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer manages per-key rate limiting. Each endpoint gets its own limiter.
// A Pacer created with a non-positive rate never blocks.
type Pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a pacer allowing rps requests per second per key with the given burst.
func New(rps float64, burst int) *Pacer {
	if burst < 1 {
		burst = 1
	}
	return &Pacer{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Enabled reports whether the pacer ever delays a request.
func (p *Pacer) Enabled() bool {
	return p != nil && p.limit > 0
}

// Allow reports whether a request for key may proceed now, consuming a token if so.
func (p *Pacer) Allow(key string) bool {
	if !p.Enabled() {
		return true
	}
	return p.limiter(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context, key string) error {
	if !p.Enabled() {
		return ctx.Err()
	}
	return p.limiter(key).Wait(ctx)
}

func (p *Pacer) limiter(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = l
	}
	return l
}
