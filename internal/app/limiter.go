package app

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/felixbrock/dockflow/internal/config"
)

// SubmitLimiter throttles the requests that start a prediction lookup
// (sequence submissions and retries) per client. A nil limiter allows
// everything.
type SubmitLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	clients map[string]*clientBucket
}

type clientBucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

// NewSubmitLimiter returns nil when submit limiting is switched off, that is
// when the rate or the burst is zero. Idle clients are forgotten after the
// session ttl.
func NewSubmitLimiter(cfg config.SessionConfig) *SubmitLimiter {
	if cfg.SubmitRPS <= 0 || cfg.SubmitBurst <= 0 {
		return nil
	}

	idleTTL := cfg.TTL
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}

	return &SubmitLimiter{
		limit:   rate.Limit(cfg.SubmitRPS),
		burst:   cfg.SubmitBurst,
		idleTTL: idleTTL,
		clients: make(map[string]*clientBucket),
	}
}

func (l *SubmitLimiter) Allow(r *http.Request, now time.Time) bool {
	if l == nil {
		return true
	}

	key := clientKey(r)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{tokens: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.seen = now

	return b.tokens.AllowN(now, 1)
}

// Sweep forgets clients idle for longer than the ttl and reports how many
// were dropped.
func (l *SubmitLimiter) Sweep(now time.Time) int {
	if l == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, b := range l.clients {
		if now.Sub(b.seen) > l.idleTTL {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

func (l *SubmitLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// clientKey identifies the caller by remote host so that fresh session
// cookies cannot be used to dodge the limit.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
