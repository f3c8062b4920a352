package espn

import (
	"context"
	"sync"
	"time"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"golang.org/x/time/rate"
)

// Limiter hands out request tokens per league. Callers block until a token is
// available or maxWait elapses.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	maxWait time.Duration
}

// NewLimiter allows perMinute requests per league with the given burst. A
// perMinute of zero disables limiting.
func NewLimiter(perMinute, burst int, maxWait time.Duration) *Limiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
		maxWait: maxWait,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// Wait blocks until key may issue a request.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	waitCtx := ctx
	if l.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.maxWait)
		defer cancel()
	}

	if err := l.bucket(key).Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperr.Wrap(apperr.KindRateLimited, "rate limit wait exceeded", err).
			WithMetadata("league_id", key)
	}
	return nil
}
