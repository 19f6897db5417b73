package srv

import (
	"math"
	"time"

	"questline/server/balance"
	"questline/server/metrics"
)

// tokenBucket limits how fast one connection may send requests.
type tokenBucket struct {
	tokens float64
	last   time.Time
}

func newTokenBucket(burst float64) *tokenBucket {
	return &tokenBucket{tokens: burst}
}

func (b *tokenBucket) allow(now time.Time, rateHz, burst float64) bool {
	if b.last.IsZero() {
		b.last = now
	}

	dt := now.Sub(b.last).Seconds()
	b.tokens = math.Min(burst, b.tokens+dt*rateHz)
	b.last = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// checkRateLimit spends one token for a message of type typ.
func checkRateLimit(bucket *tokenBucket, now time.Time, typ string) bool {
	allowed := bucket.allow(now, balance.HubMessageRateHz, balance.HubMessageBurst)
	if !allowed {
		metrics.HubRateLimited.WithLabelValues(typ).Inc()
	}
	return allowed
}
