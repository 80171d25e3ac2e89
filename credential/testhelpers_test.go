package credential

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type upstream struct {
	srv   *httptest.Server
	calls atomic.Int64
	delay atomic.Int64
	code  atomic.Int64
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := u.calls.Add(1)
		if d := time.Duration(u.delay.Load()); d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		q := r.URL.Query()
		if q.Get("grant_type") != "client_credential" || q.Get("appid") != "app" || q.Get("secret") != "s3cret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if code := u.code.Load(); code != 0 {
			_ = json.NewEncoder(w).Encode(map[string]any{"errcode": code, "errmsg": "rejected"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + strconv.FormatInt(n, 10),
			"expires_in":   7200,
		})
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) source() *HTTPSource {
	return NewHTTPSource(HTTPConfig{Endpoint: u.srv.URL, AppID: "app", Secret: "s3cret"})
}

func newKV(t *testing.T) (*miniredis.Miniredis, cache.KV) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, cache.NewRedis(rdb)
}

var bg = context.Background()
