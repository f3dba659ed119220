package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmcleod/erpdesk/internal/obs"
)

const maxLoginBody = 4 << 10

// Login resolves an email to a catalog user. This is a demo backend: there
// is no password, but failures are still rate limited and audited.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		mapError(w, errMissingEmail)
		return
	}

	if blocked, retryAfter := a.rateLimiter.check(email); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "rate limited", email)
		a.countLogin(obs.LoginLocked)
		writeRateLimited(w, retryAfter)
		return
	}

	ident, ok := a.catalog.UserByEmail(email)
	if !ok {
		a.rateLimiter.recordFailure(email)
		a.audit.logFailure(AuditLoginFailure, r, "unknown user", email)
		a.countLogin(obs.LoginUnknownUser)
		mapError(w, errUnknownUser)
		return
	}

	a.rateLimiter.recordSuccess(email)
	a.audit.logEvent(AuditLoginSuccess, r, ident.Email, slog.String("user_id", ident.ID))
	a.countLogin(obs.LoginSuccess)
	writeJSON(w, http.StatusOK, envelope[any]{Success: true, Data: ident})
}

// Me echoes the caller resolved by RequireUser.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	c, _ := callerFromContext(r.Context())
	writeJSON(w, http.StatusOK, envelope[MeResponse]{
		Success: true,
		Data: MeResponse{
			ID:         c.Identity.ID,
			Email:      c.Identity.Email,
			Name:       c.Identity.Name,
			Roles:      c.Identity.Roles(),
			ActiveRole: c.ActiveRole,
			Attributes: c.Identity.Attributes,
		},
	})
}

func (a *API) countLogin(outcome string) {
	if a.metrics != nil {
		a.metrics.LoginAttempt(outcome)
	}
}
