package app

import (
	"errors"
	"strings"
	"time"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/spf13/viper"
)

// Config is the process configuration read from the environment and an optional .env
// file. Env vars override .env.
type Config struct {
	// HTTPAddr is the listen address of the admin HTTP server.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	SessionLifetime         time.Duration `mapstructure:"SESSION_LIFETIME"`
	SessionSlidingRefresh   bool          `mapstructure:"SESSION_SLIDING_REFRESH"`
	SessionRefreshThreshold time.Duration `mapstructure:"SESSION_REFRESH_THRESHOLD"`

	// UpstreamEndpoint is the client-credential token URL.
	UpstreamEndpoint     string        `mapstructure:"UPSTREAM_ENDPOINT"`
	UpstreamAppID        string        `mapstructure:"UPSTREAM_APP_ID"`
	UpstreamSecret       string        `mapstructure:"UPSTREAM_SECRET"`
	UpstreamSafetyMargin time.Duration `mapstructure:"UPSTREAM_SAFETY_MARGIN"`
	UpstreamFetchTimeout time.Duration `mapstructure:"UPSTREAM_FETCH_TIMEOUT"`

	// Permissions is a comma-separated list of declared permission strings.
	Permissions     string `mapstructure:"PERMISSIONS"`
	RequireDeclared bool   `mapstructure:"REQUIRE_DECLARED"`

	AuditEnabled   bool `mapstructure:"AUDIT_ENABLED"`
	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

// Load reads .env (if present) from the working directory, then the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()

	def := tyadmin.DefaultConfig()
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_LIFETIME", def.Session.Lifetime.String())
	v.SetDefault("SESSION_SLIDING_REFRESH", false)
	v.SetDefault("SESSION_REFRESH_THRESHOLD", def.Session.RefreshThreshold.String())
	v.SetDefault("UPSTREAM_ENDPOINT", def.Credential.Endpoint)
	v.SetDefault("UPSTREAM_APP_ID", "")
	v.SetDefault("UPSTREAM_SECRET", "")
	v.SetDefault("UPSTREAM_SAFETY_MARGIN", def.Credential.SafetyMargin.String())
	v.SetDefault("UPSTREAM_FETCH_TIMEOUT", def.Credential.FetchTimeout.String())
	v.SetDefault("PERMISSIONS", "")
	v.SetDefault("REQUIRE_DECLARED", false)
	v.SetDefault("AUDIT_ENABLED", true)
	v.SetDefault("METRICS_ENABLED", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.RedisAddr == "" {
		return nil, errors.New("config: REDIS_ADDR must be set")
	}
	if cfg.SessionLifetime <= 0 {
		return nil, errors.New("config: SESSION_LIFETIME must be > 0")
	}
	if (cfg.UpstreamAppID == "") != (cfg.UpstreamSecret == "") {
		return nil, errors.New("config: UPSTREAM_APP_ID and UPSTREAM_SECRET must be set together")
	}

	return &cfg, nil
}

// PermissionList returns the declared permissions from the comma-separated config.
func (c *Config) PermissionList() []string {
	if c == nil || c.Permissions == "" {
		return nil
	}
	parts := strings.Split(c.Permissions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EngineConfig maps c onto the engine defaults. The result still goes through
// tyadmin.Config.Validate at Build.
func (c *Config) EngineConfig() tyadmin.Config {
	cfg := tyadmin.DefaultConfig()
	cfg.Session.Lifetime = c.SessionLifetime
	cfg.Session.SlidingRefresh = c.SessionSlidingRefresh
	cfg.Session.RefreshThreshold = c.SessionRefreshThreshold
	cfg.Credential.Endpoint = c.UpstreamEndpoint
	cfg.Credential.AppID = c.UpstreamAppID
	cfg.Credential.Secret = c.UpstreamSecret
	cfg.Credential.SafetyMargin = c.UpstreamSafetyMargin
	cfg.Credential.FetchTimeout = c.UpstreamFetchTimeout
	cfg.Permission.Declared = c.PermissionList()
	cfg.Permission.RequireDeclared = c.RequireDeclared
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	return cfg
}
