package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
)

type authResultContextKey struct{}

func AuthResultFromContext(ctx context.Context) (*tyadmin.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*tyadmin.AuthResult)
	return res, ok
}

// TokenFromContext returns the raw session token a guard accepted for this request.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenContextKey{}).(string)
	return tok, ok && tok != ""
}

type tokenContextKey struct{}

// ExtractToken reads the session token from the configured header, falling back to the
// cookie of the configured name when the header yields nothing. Each source is trimmed and
// stripped of the tag prefix before it counts. An empty result means no token was
// presented.
func ExtractToken(r *http.Request, cfg tyadmin.TransportConfig) string {
	if cfg.HeaderName != "" {
		if tok := normalizeToken(r.Header.Get(cfg.HeaderName), cfg.TagPrefix); tok != "" {
			return tok
		}
	}
	if cfg.CookieName != "" {
		if c, err := r.Cookie(cfg.CookieName); err == nil {
			return normalizeToken(c.Value, cfg.TagPrefix)
		}
	}
	return ""
}

func normalizeToken(raw, tag string) string {
	raw = strings.TrimSpace(raw)
	if tag != "" {
		raw = strings.TrimPrefix(raw, tag)
	}
	return strings.TrimSpace(raw)
}

// Require admits requests whose session holds perm. It panics when the engine requires
// declared permissions and perm was never declared, so a typo fails at route setup.
func Require(engine *tyadmin.Engine, perm string) func(http.Handler) http.Handler {
	if engine != nil {
		if err := engine.CheckDeclared(perm); err != nil {
			panic(fmt.Sprintf("middleware.Require(%q): %v", perm, err))
		}
	}

	return guard(engine, func(ctx context.Context, token string) (*tyadmin.AuthResult, error) {
		return engine.Authorize(ctx, token, perm)
	})
}

func Authenticated(engine *tyadmin.Engine) func(http.Handler) http.Handler {
	return guard(engine, func(ctx context.Context, token string) (*tyadmin.AuthResult, error) {
		return engine.Authenticate(ctx, token)
	})
}

func guard(engine *tyadmin.Engine, check func(context.Context, string) (*tyadmin.AuthResult, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			token := ExtractToken(r, engine.TransportConfig())
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := check(r.Context(), token)
			if err != nil {
				code := StatusFor(err)
				http.Error(w, http.StatusText(code), code)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			ctx = context.WithValue(ctx, tokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StatusFor maps an Engine error to the HTTP status the guards answer with.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tyadmin.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, tyadmin.ErrSessionStoreUnavailable), errors.Is(err, tyadmin.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}
