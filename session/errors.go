package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRole is matched by every *InvalidRoleError.
	ErrInvalidRole = errors.New("role not granted to identity")
	// ErrNoStore is returned by operations that persist when the Manager was
	// built without a store.
	ErrNoStore = errors.New("session store not configured")
)

// InvalidRoleError reports a SwitchRole call naming a role outside the
// identity's role list.
type InvalidRoleError struct {
	Role    string
	Allowed []string
}

func (e *InvalidRoleError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid role %q: identity has no roles", e.Role)
	}
	return fmt.Sprintf("invalid role %q: allowed roles are %s", e.Role, strings.Join(e.Allowed, ", "))
}

func (e *InvalidRoleError) Is(target error) bool {
	return target == ErrInvalidRole
}
