//go:build integration
// +build integration

package test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	permOrderList   = "order:list"
	permOrderRefund = "order:refund"
)

func newIntegrationRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// fakeUpstream serves the client-credential endpoint and counts fetches.
type fakeUpstream struct {
	*httptest.Server
	fetches atomic.Int64
}

func newFakeUpstream(t *testing.T, expiresIn int) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := u.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"upstream-%d","expires_in":%d}`, n, expiresIn)
	}))
	t.Cleanup(u.Close)
	return u
}

func newIntegrationEngine(t *testing.T, rdb redis.UniversalClient, cfg tyadmin.Config, upstreamURL string, configure ...func(*tyadmin.Builder)) *tyadmin.Engine {
	t.Helper()

	if upstreamURL != "" {
		cfg.Credential.Endpoint = upstreamURL
		cfg.Credential.AppID = "integration-app"
		cfg.Credential.Secret = "integration-secret"
	}

	b := tyadmin.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPermissions(permOrderList, permOrderRefund)
	for _, fn := range configure {
		fn(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func clerkGrant() tyadmin.Grant {
	return tyadmin.Grant{
		SubjectID:   7,
		Account:     "clerk",
		Roles:       []string{"2"},
		Permissions: []string{permOrderList},
	}
}
