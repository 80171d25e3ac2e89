package tyadmin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.UnixMilli(1_760_000_000_000)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeUpstream struct {
	srv   *httptest.Server
	calls atomic.Int64
}

func newFakeUpstream(t testing.TB) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := u.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "upstream-" + strconv.FormatInt(n, 10),
			"expires_in":   7200,
		})
	}))
	t.Cleanup(u.srv.Close)
	return u
}

type engineHarness struct {
	engine   *Engine
	mr       *miniredis.Miniredis
	clock    *testClock
	upstream *fakeUpstream
}

func newHarness(t testing.TB, cfg Config, configure func(*Builder)) *engineHarness {
	t.Helper()

	mr, rdb := newTestRedis(t)
	up := newFakeUpstream(t)
	clock := newTestClock()

	cfg.Credential.Endpoint = up.srv.URL
	cfg.Credential.AppID = "app"
	cfg.Credential.Secret = "secret"

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPermissions("order:list", "order:refund").
		withClock(clock.Now)
	if configure != nil {
		configure(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineHarness{engine: engine, mr: mr, clock: clock, upstream: up}
}

func (h *engineHarness) issue(t testing.TB, g Grant) string {
	t.Helper()
	res, err := h.engine.Issue(context.Background(), g)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return res.Token
}

var operator = Grant{
	SubjectID:   42,
	Account:     "operator",
	Roles:       []string{"2"},
	Permissions: []string{"order:list"},
}
