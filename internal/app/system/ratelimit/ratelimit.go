// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/clientip"
	"github.com/dalemusser/eventportal/internal/app/system/metrics"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
	"go.uber.org/zap"
)

// Purpose selects a row of the policy table.
type Purpose string

const (
	General       Purpose = "general"
	Auth          Purpose = "auth"
	PasswordReset Purpose = "password_reset"
	FileUpload    Purpose = "file_upload"
)

// Policy is a fixed window: at most Max requests per Window per client IP.
type Policy struct {
	Max    int
	Window time.Duration
}

// Policies is the static policy table.
var Policies = map[Purpose]Policy{
	General:       {Max: 100, Window: 15 * time.Minute},
	Auth:          {Max: 5, Window: 15 * time.Minute},
	PasswordReset: {Max: 3, Window: time.Hour},
	FileUpload:    {Max: 10, Window: time.Hour},
}

// BlockDuration is how long an IP stays blocked after exceeding twice a limit.
const BlockDuration = time.Hour

// Limiter enforces Policies. Counters live in the injected store so several
// instances can share them. It is safe for concurrent use.
type Limiter struct {
	store    ttlstore.Store
	sec      *seclog.Logger
	log      *zap.Logger
	policies map[Purpose]Policy
	now      func() time.Time
}

// New creates a limiter over store using the default policy table.
func New(store ttlstore.Store, sec *seclog.Logger, logger *zap.Logger) *Limiter {
	return &Limiter{
		store:    store,
		sec:      sec,
		log:      logger,
		policies: Policies,
		now:      time.Now,
	}
}

// Decision is the outcome of one Check.
type Decision struct {
	Allowed    bool
	Blocked    bool // the IP is in the block set
	Count      int64
	Remaining  int
	RetryAfter time.Duration
}

func counterKey(p Purpose, ip string) string { return "ratelimit:" + string(p) + ":" + ip }
func blockKey(ip string) string              { return "ratelimit:block:" + ip }

// Check counts one request for (p, ip).
// Store failures admit the request.
func (l *Limiter) Check(ctx context.Context, p Purpose, ip string) (Decision, error) {
	pol, ok := l.policies[p]
	if !ok {
		return Decision{}, fmt.Errorf("ratelimit: unknown purpose %q", p)
	}

	until, blocked, err := l.store.Expiry(ctx, blockKey(ip))
	if err != nil {
		l.log.Warn("rate limit store unavailable", zap.Error(err))
		return Decision{Allowed: true, Remaining: pol.Max}, nil
	}
	if blocked {
		return Decision{Blocked: true, RetryAfter: l.until(until, BlockDuration)}, nil
	}

	n, end, err := l.store.Incr(ctx, counterKey(p, ip), pol.Window)
	if err != nil {
		l.log.Warn("rate limit store unavailable", zap.Error(err))
		return Decision{Allowed: true, Remaining: pol.Max}, nil
	}

	d := Decision{Count: n, Remaining: max(pol.Max-int(n), 0)}
	if n <= int64(pol.Max) {
		d.Allowed = true
		return d, nil
	}

	d.RetryAfter = l.until(end, pol.Window)
	if n > 2*int64(pol.Max) {
		if err := l.store.Put(ctx, blockKey(ip), BlockDuration); err != nil {
			l.log.Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
		} else {
			d.Blocked = true
			d.RetryAfter = BlockDuration
			l.sec.Log(seclog.Event{
				Type:    seclog.IPBlocked,
				IP:      ip,
				Details: map[string]any{"purpose": string(p), "count": n},
			})
		}
	}
	return d, nil
}

func (l *Limiter) until(at time.Time, fallback time.Duration) time.Duration {
	if at.IsZero() {
		return fallback
	}
	if d := at.Sub(l.now()); d > 0 {
		return d
	}
	return time.Second
}

// Reset clears the counter for (p, ip).
func (l *Limiter) Reset(ctx context.Context, p Purpose, ip string) error {
	return l.store.Delete(ctx, counterKey(p, ip))
}

// Middleware limits requests by client IP under purpose p.
func (l *Limiter) Middleware(p Purpose) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.From(r)
			d, err := l.Check(r.Context(), p, ip)
			if err != nil {
				l.log.Error("rate limit check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				l.Reject(w, r, p, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Reject writes the 429 response for d and records it.
func (l *Limiter) Reject(w http.ResponseWriter, r *http.Request, p Purpose, d Decision) {
	metrics.RateLimitRejections.WithLabelValues(string(p)).Inc()
	l.sec.Request(r, seclog.RateLimitExceeded, "", map[string]any{
		"purpose": string(p),
		"path":    r.URL.Path,
		"blocked": d.Blocked,
	})

	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))

	msg := "Too many requests. Please try again later."
	if d.Blocked {
		msg = "Too many requests from this address. Please try again in an hour."
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      msg,
			"retryAfter": secs,
		})
		return
	}
	http.Error(w, msg, http.StatusTooManyRequests)
}
