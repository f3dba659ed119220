package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jmcleod/erpdesk/erp"
	"github.com/jmcleod/erpdesk/session"
	"github.com/jmcleod/erpdesk/source/rest"
)

type contextKey int

const callerKey contextKey = iota

// caller is the identity resolved from the request headers together with
// the role it is acting under.
type caller struct {
	Identity   session.Identity
	ActiveRole string
}

// resourceRoles lists the roles allowed to read each resource. Resources
// absent from the map are open to every signed-in user.
var resourceRoles = map[string][]string{
	erp.ResourcePurchaseOrders: {"admin", "manager", "clerk"},
	erp.ResourceRoles:          {"admin"},
	erp.ResourceAuditLogs:      {"admin", "réviseur"},
	erp.ResourceTranslations:   {"admin", "manager"},
}

// warehouseScoped resources only show a clerk the rows of their warehouse.
var warehouseScoped = map[string]bool{
	erp.ResourceInventory:      true,
	erp.ResourcePurchaseOrders: true,
}

// RequireUser resolves X-User-ID to a catalog user and X-Active-Role to one
// of that user's roles. An absent role header means the user's first role.
func (a *API) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(rest.HeaderUserID))
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing "+rest.HeaderUserID+" header")
			return
		}
		ident, ok := a.catalog.UserByID(id)
		if !ok {
			a.audit.logFailure(AuditAccessDenied, r, "unknown user", id)
			mapError(w, errUnknownUser)
			return
		}

		roles := ident.Roles()
		role := norm.NFC.String(strings.TrimSpace(r.Header.Get(rest.HeaderActiveRole)))
		switch {
		case role == "" && len(roles) > 0:
			role = roles[0]
		case role != "" && !ident.HasRole(role):
			a.audit.logFailure(AuditAccessDenied, r, "role not granted", ident.Email)
			mapError(w, &session.InvalidRoleError{Role: role, Allowed: roles})
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, caller{Identity: ident, ActiveRole: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFromContext(ctx context.Context) (caller, bool) {
	c, ok := ctx.Value(callerKey).(caller)
	return c, ok
}

// authorize reports whether c may read resource.
func (c caller) authorize(resource string) bool {
	allowed, restricted := resourceRoles[resource]
	if !restricted {
		return true
	}
	return slices.Contains(allowed, c.ActiveRole)
}

// warehouse is the warehouse a clerk is scoped to, or "" for unscoped roles.
// ok is false for a clerk without a warehouse attribute.
func (c caller) warehouse() (wh string, ok bool) {
	if c.ActiveRole != "clerk" {
		return "", true
	}
	wh = c.Identity.Attributes["warehouse"]
	return wh, wh != ""
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
