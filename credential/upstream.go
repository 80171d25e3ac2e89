package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 64 << 10

// Token is one access token as issued by the upstream.
type Token struct {
	Value     string
	TTL       time.Duration
	FetchedAt time.Time
}

// Source obtains a fresh access token from the upstream.
type Source interface {
	Fetch(ctx context.Context) (Token, error)
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(ctx context.Context) (Token, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) (Token, error) { return f(ctx) }

// HTTPConfig configures [HTTPSource].
type HTTPConfig struct {
	Endpoint  string
	AppID     string
	Secret    string
	StaleCode int
	Client    *http.Client
}

// HTTPSource fetches tokens with the client-credential grant:
//
//	GET {endpoint}?grant_type=client_credential&appid={id}&secret={secret}
//
// The response is {"access_token","expires_in","errcode","errmsg"}.
type HTTPSource struct {
	cfg HTTPConfig
}

// NewHTTPSource returns a source for cfg. A nil client selects [http.DefaultClient];
// deadlines come from the request context.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.StaleCode <= 0 {
		cfg.StaleCode = DefaultStaleCode
	}
	return &HTTPSource{cfg: cfg}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

// Fetch performs one upstream round trip.
func (s *HTTPSource) Fetch(ctx context.Context) (Token, error) {
	if strings.TrimSpace(s.cfg.AppID) == "" || strings.TrimSpace(s.cfg.Secret) == "" || s.cfg.Endpoint == "" {
		return Token{}, ErrConfigurationMissing
	}

	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return Token{}, fmt.Errorf("%w: invalid endpoint", ErrConfigurationMissing)
	}
	q := u.Query()
	q.Set("grant_type", "client_credential")
	q.Set("appid", s.cfg.AppID)
	q.Set("secret", s.cfg.Secret)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrUpstreamTransport, err)
	}

	resp, err := s.cfg.Client.Do(req)
	if err != nil {
		// url.Error text includes the query string.
		return Token{}, fmt.Errorf("%w: %v", ErrUpstreamTransport, redact(err, s.cfg.Secret))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Token{}, fmt.Errorf("%w: http status %d", ErrUpstreamTransport, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return Token{}, fmt.Errorf("%w: decode response: %v", ErrUpstreamTransport, err)
	}
	if body.ErrCode != 0 {
		return Token{}, NewUpstreamError(body.ErrCode, body.ErrMsg, s.cfg.StaleCode)
	}
	if body.AccessToken == "" || body.ExpiresIn <= 0 {
		return Token{}, fmt.Errorf("%w: response without token", ErrUpstreamTransport)
	}

	return Token{
		Value:     body.AccessToken,
		TTL:       time.Duration(body.ExpiresIn) * time.Second,
		FetchedAt: time.Now(),
	}, nil
}

func redact(err error, secret string) string {
	msg := err.Error()
	if secret == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(secret), "REDACTED")
	return strings.ReplaceAll(msg, secret, "REDACTED")
}
