package tyadmin

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/cache"
	"github.com/GitHub-GodOne/ty-admin-sub001/credential"
	"github.com/GitHub-GodOne/ty-admin-sub001/internal"
	"github.com/GitHub-GodOne/ty-admin-sub001/internal/flows"
	"github.com/GitHub-GodOne/ty-admin-sub001/permission"
	"github.com/GitHub-GodOne/ty-admin-sub001/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used for one Build call.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	kv     cache.KV

	permissions []string

	source        credential.Source
	httpClient    *http.Client
	refreshPolicy session.RefreshPolicy
	logger        *slog.Logger
	auditSink     AuditSink

	now      func() time.Time
	newToken func() (string, error)

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis uses client as the shared cache. Single-node, sentinel and cluster clients are
// all accepted.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCache uses kv as the shared cache. It takes precedence over WithRedis.
func (b *Builder) WithCache(kv cache.KV) *Builder {
	b.kv = kv
	return b
}

// WithPermissions declares permission strings in addition to Config.Permission.Declared.
func (b *Builder) WithPermissions(perms ...string) *Builder {
	b.permissions = append(b.permissions, perms...)
	return b
}

// WithCredentialSource replaces the HTTP client-credential source built from
// Config.Credential.
func (b *Builder) WithCredentialSource(src credential.Source) *Builder {
	b.source = src
	return b
}

// WithHTTPClient sets the client used by the default upstream source.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithRefreshPolicy overrides the policy derived from Config.Session.
func (b *Builder) WithRefreshPolicy(p session.RefreshPolicy) *Builder {
	b.refreshPolicy = p
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) withTokenGenerator(gen func() (string, error)) *Builder {
	b.newToken = gen
	return b
}

// Build validates the configuration and wires the engine. It performs no I/O.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kv := b.kv
	if kv == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or cache required")
		}
		kv = cache.NewRedis(b.redis)
	}

	// -------- PERMISSIONS --------
	registry, err := permission.NewRegistry(cfg.Permission.Declared...)
	if err != nil {
		return nil, err
	}
	for _, p := range b.permissions {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	// -------- SESSION STORE --------
	store := session.NewStore(kv, cfg.Session.KeyPrefix)

	policy := b.refreshPolicy
	if policy == nil {
		if cfg.Session.SlidingRefresh {
			policy = session.ThresholdRefresh{Threshold: cfg.Session.RefreshThreshold}
		} else {
			policy = session.NeverRefresh{}
		}
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	newToken := b.newToken
	if newToken == nil {
		newToken = internal.NewSessionToken
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		store:     store,
		evaluator: permission.NewEvaluator(cfg.Permission.SuperuserRole),
		registry:  registry,
		logger:    logger,
		now:       now,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	// -------- FLOWS --------
	validateDeps := flows.ValidateDeps{
		Now:             now,
		IsWellFormed:    internal.IsSessionToken,
		SessionStore:    store,
		SessionNotFound: session.ErrSessionNotFound,
	}
	engine.flows = flows.New(flows.Deps{
		Issue: flows.IssueDeps{
			NewToken:     newToken,
			Now:          now,
			Lifetime:     cfg.Session.Lifetime,
			SessionStore: store,
		},
		Validate: validateDeps,
		Refresh: flows.RefreshDeps{
			Now:          now,
			Lifetime:     cfg.Session.Lifetime,
			Policy:       policy,
			SessionStore: store,
		},
		Logout: flows.LogoutDeps{SessionStore: store},
		Introspect: flows.IntrospectDeps{
			Now:          now,
			Validate:     validateDeps,
			SessionStore: store,
		},
	})

	// -------- UPSTREAM CREDENTIAL --------
	source := b.source
	if source == nil {
		source = credential.NewHTTPSource(credential.HTTPConfig{
			Endpoint:  cfg.Credential.Endpoint,
			AppID:     cfg.Credential.AppID,
			Secret:    cfg.Credential.Secret,
			StaleCode: cfg.Credential.StaleCode,
			Client:    b.httpClient,
		})
	} else {
		engine.customSource = true
	}
	// A zero margin in Config means none; credential.Options reserves zero for its default.
	margin := cfg.Credential.SafetyMargin
	if margin == 0 {
		margin = -1
	}
	engine.upstream = credential.New(kv, source, credential.Options{
		Key:          cfg.Credential.Key,
		SafetyMargin: margin,
		MinStoreTTL:  cfg.Credential.MinStoreTTL,
		FetchTimeout: cfg.Credential.FetchTimeout,
		Logger:       logger.With("component", "upstream_credential"),
		Hooks:        engine.credentialHooks(),
	})

	b.built = true

	return engine, nil
}
