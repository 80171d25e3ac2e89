package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(cache.NewRedis(rdb), "")
	return store, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func testSession() *Session {
	now := time.Now()
	return &Session{
		Token:       "0123456789abcdef0123456789abcdef",
		SubjectID:   7,
		Account:     "ops",
		Roles:       []string{"2"},
		Permissions: []string{"orders:read"},
		IssuedAt:    now.UnixMilli(),
		ExpiresAt:   now.Add(5 * time.Hour).UnixMilli(),
	}
}

func TestStoreUsesAdminTokenNamespace(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	sess := testSession()

	if err := store.Save(context.Background(), sess, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("TOKEN:ADMIN:" + sess.Token) {
		t.Fatalf("expected key TOKEN:ADMIN:%s, have %v", sess.Token, mr.Keys())
	}
	if ttl := mr.TTL("TOKEN:ADMIN:" + sess.Token); ttl != time.Hour {
		t.Fatalf("expected store ttl 1h, got %v", ttl)
	}
}

func TestStoreExtendDoesNotRecreateDeleted(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Extend(ctx, sess, 5*time.Hour); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if ttl := mr.TTL(store.Key(sess.Token)); ttl != 5*time.Hour {
		t.Fatalf("expected extended ttl 5h, got %v", ttl)
	}

	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Extend(ctx, sess, 5*time.Hour); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if mr.Exists(store.Key(sess.Token)) {
		t.Fatal("extend recreated a deleted session")
	}
}

func TestStoreSaveGetDelete(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token != sess.Token || got.SubjectID != 7 || got.Account != "ops" {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreCorruptRecord(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()

	if err := mr.Set(store.Key("bad"), "garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Get(context.Background(), "bad"); !errors.Is(err, ErrSessionCorrupt) {
		t.Fatalf("expected ErrSessionCorrupt, got %v", err)
	}
}

func TestStoreUnavailableIsNotNotFound(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	mr.Close()

	_, err := store.Get(context.Background(), "any")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrSessionNotFound) {
		t.Fatal("cache failure must not look like a missing session")
	}
	if _, err := store.Ping(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("ping: expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRefreshPolicies(t *testing.T) {
	if (NeverRefresh{}).ShouldRefresh(time.Second) {
		t.Fatal("NeverRefresh must never refresh")
	}

	p := ThresholdRefresh{}
	tests := []struct {
		remaining time.Duration
		want      bool
	}{
		{19 * time.Minute, true},
		{20 * time.Minute, false},
		{2 * time.Hour, false},
		{0, true},
		{-time.Second, false},
	}
	for _, tt := range tests {
		if got := p.ShouldRefresh(tt.remaining); got != tt.want {
			t.Fatalf("remaining %v: got %v want %v", tt.remaining, got, tt.want)
		}
	}

	f := RefreshPolicyFunc(func(time.Duration) bool { return true })
	if !f.ShouldRefresh(time.Hour) {
		t.Fatal("func policy not applied")
	}
}
