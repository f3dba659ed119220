package api

import (
	"log/slog"
	"net/http"
	"net/netip"
	"path"
	"time"

	"github.com/jmcleod/erpdesk/erp"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess     AuditEvent = "login_success"
	AuditLoginFailure     AuditEvent = "login_failure"
	AuditLoginRateLimited AuditEvent = "login_rate_limited"
	AuditAccessDenied     AuditEvent = "access_denied"
)

// auditLogger writes security audit events to the structured log, the
// catalog's audit trail and, when configured, the persistent audit store.
type auditLogger struct {
	logger         *slog.Logger
	now            func() time.Time
	metrics        *metricsCollector
	catalog        *erp.Catalog
	store          *auditStore
	trustedProxies []netip.Prefix
}

func newAuditLogger(logger *slog.Logger, now func() time.Time) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
		now:    now,
	}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, actor, outcome string, attrs ...slog.Attr) {
	now := al.now().UTC()
	remote := clientIP(r, al.trustedProxies)
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("actor", actor),
		slog.String("outcome", outcome),
		slog.String("remote_addr", remote),
		slog.String("timestamp", now.Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)

	level := slog.LevelInfo
	if outcome != erp.OutcomeSuccess {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(r.Context(), level, "audit", baseAttrs...)
	al.metrics.recordEvent(event)

	if al.catalog == nil {
		return
	}
	entry := al.catalog.RecordAudit(erp.AuditLog{
		Actor:      actor,
		Action:     string(event),
		Resource:   path.Base(r.URL.Path),
		Outcome:    outcome,
		RemoteAddr: remote,
		At:         now,
	})
	if al.store != nil {
		if err := al.store.append(r.Context(), entry); err != nil {
			al.logger.Error("persisting audit entry", "error", err, "id", entry.ID)
		}
	}
}

// logEvent records a successful action by actor.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, actor string, extra ...slog.Attr) {
	al.log(event, r, actor, erp.OutcomeSuccess, extra...)
}

// logFailure records a rejected action. Access denials are recorded with the
// denied outcome, everything else as a failure.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason, actor string, extra ...slog.Attr) {
	outcome := erp.OutcomeFailure
	if event == AuditAccessDenied {
		outcome = erp.OutcomeDenied
	}
	attrs := append([]slog.Attr{slog.String("reason", reason)}, extra...)
	al.log(event, r, actor, outcome, attrs...)
}
