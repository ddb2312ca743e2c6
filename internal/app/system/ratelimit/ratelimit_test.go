package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
	"go.uber.org/zap"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter() (*Limiter, *clock) {
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := New(ttlstore.NewMemory(ttlstore.WithClock(clk.Now)), nil, zap.NewNop())
	l.now = clk.Now
	return l, clk
}

func TestCheck_AdmitsMaxThenRejects(t *testing.T) {
	for purpose, pol := range Policies {
		t.Run(string(purpose), func(t *testing.T) {
			l, clk := newTestLimiter()
			ctx := context.Background()

			for i := 1; i <= pol.Max; i++ {
				d, err := l.Check(ctx, purpose, "198.51.100.1")
				if err != nil {
					t.Fatalf("Check: %v", err)
				}
				if !d.Allowed {
					t.Fatalf("request %d of %d rejected", i, pol.Max)
				}
			}

			d, _ := l.Check(ctx, purpose, "198.51.100.1")
			if d.Allowed {
				t.Fatalf("request %d admitted, want rejection", pol.Max+1)
			}
			if d.RetryAfter <= 0 || d.RetryAfter > pol.Window {
				t.Errorf("RetryAfter = %v, want within (0, %v]", d.RetryAfter, pol.Window)
			}

			// a different IP has its own counter
			if d, _ := l.Check(ctx, purpose, "198.51.100.2"); !d.Allowed {
				t.Error("other IP rejected")
			}

			clk.Advance(pol.Window)
			if d, _ := l.Check(ctx, purpose, "198.51.100.1"); !d.Allowed {
				t.Error("request after window elapsed rejected")
			}
		})
	}
}

func TestCheck_PurposesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()
	ctx := context.Background()

	for i := 0; i < Policies[Auth].Max+1; i++ {
		_, _ = l.Check(ctx, Auth, "203.0.113.5")
	}
	if d, _ := l.Check(ctx, General, "203.0.113.5"); !d.Allowed {
		t.Error("general limiter rejected after auth limit was exceeded")
	}
}

func TestCheck_BlocksAfterTwiceTheLimit(t *testing.T) {
	l, clk := newTestLimiter()
	ctx := context.Background()
	pol := Policies[Auth]

	var last Decision
	for i := 0; i < 2*pol.Max+1; i++ {
		last, _ = l.Check(ctx, Auth, "203.0.113.9")
	}
	if !last.Blocked {
		t.Fatal("IP not blocked after exceeding twice the limit")
	}
	if last.RetryAfter != BlockDuration {
		t.Errorf("RetryAfter = %v, want %v", last.RetryAfter, BlockDuration)
	}

	// blocked for every purpose, even after the auth window resets
	clk.Advance(pol.Window)
	d, _ := l.Check(ctx, General, "203.0.113.9")
	if d.Allowed || !d.Blocked {
		t.Errorf("blocked IP admitted by general limiter: %+v", d)
	}

	clk.Advance(BlockDuration)
	if d, _ := l.Check(ctx, General, "203.0.113.9"); !d.Allowed {
		t.Errorf("IP still rejected after block expired: %+v", d)
	}
}

func TestCheck_UnknownPurpose(t *testing.T) {
	l, _ := newTestLimiter()
	if _, err := l.Check(context.Background(), Purpose("nope"), "1.2.3.4"); err == nil {
		t.Error("expected error for unknown purpose")
	}
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter()
	ctx := context.Background()
	for i := 0; i < Policies[PasswordReset].Max; i++ {
		_, _ = l.Check(ctx, PasswordReset, "1.2.3.4")
	}
	if err := l.Reset(ctx, PasswordReset, "1.2.3.4"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if d, _ := l.Check(ctx, PasswordReset, "1.2.3.4"); !d.Allowed || d.Count != 1 {
		t.Errorf("after Reset: %+v", d)
	}
}

func TestMiddleware_429WithRetryAfter(t *testing.T) {
	l, _ := newTestLimiter()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := l.Middleware(PasswordReset)(ok)

	send := func(accept string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/auth/forgot-password", nil)
		r.RemoteAddr = "192.0.2.44:1234"
		if accept != "" {
			r.Header.Set("Accept", accept)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	for i := 0; i < Policies[PasswordReset].Max; i++ {
		if rec := send(""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}

	rec := send("")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	rec = send("application/json")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("json status = %d, want 429", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["retryAfter"]; !ok {
		t.Errorf("json body missing retryAfter: %v", body)
	}
}

func TestMiddleware_RotatingForwardedForStillLimited(t *testing.T) {
	l, _ := newTestLimiter()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := l.Middleware(Auth)(ok)

	passed := 0
	for i := 0; i < 50; i++ {
		r := httptest.NewRequest("POST", "/auth/login", nil)
		r.RemoteAddr = "198.51.100.77:4000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	if passed != Policies[Auth].Max {
		t.Errorf("passed = %d, want %d", passed, Policies[Auth].Max)
	}
}

func TestLoginGuard(t *testing.T) {
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	g := NewLoginGuard(ttlstore.NewMemory(ttlstore.WithClock(clk.Now)))
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		locked, err := g.Fail(ctx, "Alice@Example.com")
		if err != nil {
			t.Fatalf("Fail: %v", err)
		}
		if locked {
			t.Fatalf("locked after %d failures", i)
		}
	}
	if locked, _ := g.Fail(ctx, " alice@example.com "); !locked {
		t.Fatal("not locked after 5 failures")
	}
	if locked, _, _ := g.Locked(ctx, "ALICE@example.com"); !locked {
		t.Error("Locked() = false after lockout")
	}

	clk.Advance(15 * time.Minute)
	if locked, _, _ := g.Locked(ctx, "alice@example.com"); locked {
		t.Error("still locked after lockout elapsed")
	}
}

func TestLoginGuard_SucceedClearsFailures(t *testing.T) {
	g := NewLoginGuard(ttlstore.NewMemory())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = g.Fail(ctx, "bob")
	}
	if err := g.Succeed(ctx, "bob"); err != nil {
		t.Fatalf("Succeed: %v", err)
	}
	if locked, _ := g.Fail(ctx, "bob"); locked {
		t.Error("locked on first failure after a successful login")
	}
}
