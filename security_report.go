package tyadmin

import "time"

// SecurityReport summarizes the security-relevant configuration of a built engine. It is
// safe to log: it carries no secrets.
type SecurityReport struct {
	SessionLifetime      time.Duration
	SlidingRefresh       bool
	RefreshThreshold     time.Duration
	SuperuserRole        string
	DeclaredPermissions  int
	RequireDeclared      bool
	TokenHeader          string
	TokenCookie          string
	UpstreamConfigured   bool
	UpstreamSafetyMargin time.Duration
	UpstreamFetchTimeout time.Duration
	AuditEnabled         bool
	MetricsEnabled       bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	declared := 0
	if e.registry != nil {
		declared = e.registry.Count()
	}

	return SecurityReport{
		SessionLifetime:      e.config.Session.Lifetime,
		SlidingRefresh:       e.config.Session.SlidingRefresh,
		RefreshThreshold:     e.config.Session.RefreshThreshold,
		SuperuserRole:        e.config.Permission.SuperuserRole,
		DeclaredPermissions:  declared,
		RequireDeclared:      e.config.Permission.RequireDeclared,
		TokenHeader:          e.config.Transport.HeaderName,
		TokenCookie:          e.config.Transport.CookieName,
		UpstreamConfigured:   e.upstreamConfigured(),
		UpstreamSafetyMargin: e.config.Credential.SafetyMargin,
		UpstreamFetchTimeout: e.config.Credential.FetchTimeout,
		AuditEnabled:         e.audit != nil,
		MetricsEnabled:       e.metrics.Enabled(),
	}
}
