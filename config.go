package tyadmin

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/credential"
	"github.com/GitHub-GodOne/ty-admin-sub001/permission"
	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

// Config is the complete engine configuration.
//
// Config instances are intended to be configured during initialization and then treated as
// immutable; the Builder keeps its own copy.
type Config struct {
	Session    SessionConfig
	Credential CredentialConfig
	Transport  TransportConfig
	Permission PermissionConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and sliding refresh.
type SessionConfig struct {
	KeyPrefix string
	Lifetime  time.Duration

	// SlidingRefresh extends a session on validation once less than RefreshThreshold
	// remains. Disabled by default.
	SlidingRefresh   bool
	RefreshThreshold time.Duration
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig configures the upstream access-token cache.
//
// AppID and Secret may be left empty at build time; calls needing the upstream token then
// fail with [credential.ErrConfigurationMissing].
type CredentialConfig struct {
	Endpoint string
	AppID    string
	Secret   string

	Key          string
	SafetyMargin time.Duration
	MinStoreTTL  time.Duration
	FetchTimeout time.Duration
	StaleCode    int
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig describes where inbound requests carry the session token.
type TransportConfig struct {
	HeaderName string
	CookieName string
	// TagPrefix is stripped from the raw value when present, e.g. "TOKEN_".
	TagPrefix string
}

// PermissionConfig controls permission evaluation.
type PermissionConfig struct {
	SuperuserRole string
	// Declared lists the canonical permission strings protected routes may require.
	Declared []string
	// RequireDeclared makes route guards fail to build for undeclared permissions.
	RequireDeclared bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration: five hour sessions without sliding
// refresh, the Authori-zation header/cookie transport with the TOKEN_ tag, and a five
// minute upstream safety margin.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			KeyPrefix:        session.KeyPrefix,
			Lifetime:         5 * time.Hour,
			SlidingRefresh:   false,
			RefreshThreshold: session.DefaultRefreshThreshold,
		},
		Credential: CredentialConfig{
			Endpoint:     "https://api.weixin.qq.com/cgi-bin/token",
			Key:          credential.DefaultKey,
			SafetyMargin: credential.DefaultSafetyMargin,
			MinStoreTTL:  credential.DefaultMinStoreTTL,
			FetchTimeout: credential.DefaultFetchTimeout,
			StaleCode:    credential.DefaultStaleCode,
		},
		Transport: TransportConfig{
			HeaderName: "Authori-zation",
			CookieName: "Authori-zation",
			TagPrefix:  "TOKEN_",
		},
		Permission: PermissionConfig{
			SuperuserRole:   permission.DefaultSuperuserRole,
			RequireDeclared: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// SlidingConfig returns [DefaultConfig] with sliding refresh enabled at the default
// threshold.
func SlidingConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.SlidingRefresh = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Permission.Declared = append([]string(nil), cfg.Permission.Declared...)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found. It does not mutate c.
func (c *Config) Validate() error {
	// Session
	if strings.TrimSpace(c.Session.KeyPrefix) == "" {
		return errors.New("Session KeyPrefix must not be empty")
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if c.Session.RefreshThreshold < 0 {
		return errors.New("Session RefreshThreshold must be >= 0")
	}
	if c.Session.SlidingRefresh {
		if c.Session.RefreshThreshold <= 0 {
			return errors.New("Session RefreshThreshold must be > 0 when SlidingRefresh is true")
		}
		if c.Session.RefreshThreshold >= c.Session.Lifetime {
			return errors.New("Session RefreshThreshold must be < Lifetime")
		}
	}

	// Credential
	if strings.TrimSpace(c.Credential.Key) == "" {
		return errors.New("Credential Key must not be empty")
	}
	if c.Credential.Endpoint != "" {
		u, err := url.Parse(c.Credential.Endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("Credential Endpoint must be an absolute http(s) URL")
		}
	}
	if c.Credential.SafetyMargin < 0 {
		return errors.New("Credential SafetyMargin must be >= 0")
	}
	if c.Credential.MinStoreTTL < time.Second {
		return errors.New("Credential MinStoreTTL must be >= 1s")
	}
	if c.Credential.FetchTimeout <= 0 {
		return errors.New("Credential FetchTimeout must be > 0")
	}
	if c.Credential.StaleCode <= 0 {
		return errors.New("Credential StaleCode must be > 0")
	}
	if (c.Credential.AppID == "") != (c.Credential.Secret == "") {
		return errors.New("Credential AppID and Secret must be set together")
	}

	// Transport
	if strings.TrimSpace(c.Transport.HeaderName) == "" && strings.TrimSpace(c.Transport.CookieName) == "" {
		return errors.New("Transport requires HeaderName or CookieName")
	}

	// Permission
	if strings.TrimSpace(c.Permission.SuperuserRole) == "" {
		return errors.New("Permission SuperuserRole must not be empty")
	}
	if strings.Contains(c.Permission.SuperuserRole, ",") {
		return errors.New("Permission SuperuserRole must not contain ','")
	}
	for _, p := range c.Permission.Declared {
		if p == permission.WildcardValue {
			return errors.New("Permission Declared must not contain the wildcard")
		}
		if strings.TrimSpace(p) == "" {
			return errors.New("Permission Declared must not contain empty strings")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Enabled is true")
	}

	return nil
}
