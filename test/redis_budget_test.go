//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/GitHub-GodOne/ty-admin-sub001/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// cmdCounter is a go-redis Hook that counts the number of Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64 { return h.commands.Load() }

// newCountedEngine builds an engine over miniredis with a cmdCounter installed.
// Reset the counter before each measured operation.
func newCountedEngine(t *testing.T, cfg tyadmin.Config, upstreamURL string, configure ...func(*tyadmin.Builder)) (*tyadmin.Engine, *miniredis.Miniredis, *cmdCounter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// Warm the connection so handshake commands are not counted.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}

	counter := &cmdCounter{}
	rdb.AddHook(counter)

	engine := newIntegrationEngine(t, rdb, cfg, upstreamURL, configure...)
	counter.Reset()
	return engine, mr, counter
}

func assertBudget(t *testing.T, counter *cmdCounter, op string, max int64) {
	t.Helper()
	if got := counter.Commands(); got > max {
		t.Fatalf("%s: %d Redis commands exceeds budget %d", op, got, max)
	}
}

// TestIssueRedisBudget verifies that issuing a session is a single SET.
func TestIssueRedisBudget(t *testing.T) {
	engine, _, counter := newCountedEngine(t, tyadmin.DefaultConfig(), "")

	if _, err := engine.Issue(context.Background(), clerkGrant()); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	assertBudget(t, counter, "Issue", 1)
}

// TestValidateRedisBudget verifies that validation is one GET and that malformed tokens
// never reach Redis.
func TestValidateRedisBudget(t *testing.T) {
	ctx := context.Background()
	engine, _, counter := newCountedEngine(t, tyadmin.DefaultConfig(), "")

	res, err := engine.Issue(ctx, clerkGrant())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	counter.Reset()
	if _, err := engine.Validate(ctx, res.Token); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	assertBudget(t, counter, "Validate", 1)

	counter.Reset()
	if _, err := engine.Authorize(ctx, res.Token, permOrderList); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	assertBudget(t, counter, "Authorize", 1)

	counter.Reset()
	for _, token := range []string{"", "short", "ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ", res.Token + "0"} {
		if _, err := engine.Validate(ctx, token); err != nil {
			t.Fatalf("Validate(%q): %v", token, err)
		}
	}
	assertBudget(t, counter, "Validate malformed", 0)
}

// TestSlidingRefreshRedisBudget verifies that a refreshing validation is GET plus SET.
func TestSlidingRefreshRedisBudget(t *testing.T) {
	ctx := context.Background()
	always := session.RefreshPolicyFunc(func(time.Duration) bool { return true })
	engine, _, counter := newCountedEngine(t, tyadmin.DefaultConfig(), "", func(b *tyadmin.Builder) {
		b.WithRefreshPolicy(always)
	})

	res, err := engine.Issue(ctx, clerkGrant())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	counter.Reset()
	vr, err := engine.Validate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !vr.Refreshed {
		t.Fatal("expected the session to be refreshed")
	}
	assertBudget(t, counter, "Validate with refresh", 2)
}

// TestLogoutRedisBudget verifies that logout is a single DEL.
func TestLogoutRedisBudget(t *testing.T) {
	ctx := context.Background()
	engine, mr, counter := newCountedEngine(t, tyadmin.DefaultConfig(), "")

	res, err := engine.Issue(ctx, clerkGrant())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	counter.Reset()
	if err := engine.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	assertBudget(t, counter, "Logout", 1)

	if mr.Exists(session.KeyPrefix + res.Token) {
		t.Fatal("session key still present after logout")
	}
}

// TestUpstreamTokenRedisBudget verifies the cache-aside path: a hit is one GET, a miss is
// the GET, the in-flight recheck and the SET.
func TestUpstreamTokenRedisBudget(t *testing.T) {
	ctx := context.Background()
	upstream := newFakeUpstream(t, 7200)
	engine, mr, counter := newCountedEngine(t, tyadmin.DefaultConfig(), upstream.URL)

	if _, err := engine.UpstreamToken(ctx); err != nil {
		t.Fatalf("UpstreamToken miss: %v", err)
	}
	assertBudget(t, counter, "UpstreamToken miss", 3)

	counter.Reset()
	if _, err := engine.UpstreamToken(ctx); err != nil {
		t.Fatalf("UpstreamToken hit: %v", err)
	}
	assertBudget(t, counter, "UpstreamToken hit", 1)

	if ttl := mr.TTL("UPSTREAM:ACCESS_TOKEN"); ttl != 7200*time.Second-300*time.Second {
		t.Fatalf("expected stored TTL 1h55m, got %v", ttl)
	}
}
