package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Identity is the user record returned by the authentication API. Role holds
// the comma-separated list of granted roles, e.g. "admin, manager".
type Identity struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	Name       string            `json:"name"`
	Role       string            `json:"role"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Roles returns the parsed role list.
func (i Identity) Roles() []string {
	return ParseRoles(i.Role)
}

// HasRole reports whether role is one of the identity's roles.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles(), norm.NFC.String(strings.TrimSpace(role)))
}

func (i Identity) clone() Identity {
	if i.Attributes != nil {
		attrs := make(map[string]string, len(i.Attributes))
		for k, v := range i.Attributes {
			attrs[k] = v
		}
		i.Attributes = attrs
	}
	return i
}

// UnmarshalJSON accepts the id as either a JSON string or a JSON number.
func (i *Identity) UnmarshalJSON(data []byte) error {
	type plain Identity
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Identity(raw.plain)
	i.ID = ""

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
	case id[0] == '"':
		if err := json.Unmarshal(id, &i.ID); err != nil {
			return fmt.Errorf("identity id: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("identity id: %w", err)
		}
		i.ID = n.String()
	}
	return nil
}

// ParseRoles splits a comma-separated role field. Entries are trimmed and
// NFC-normalised; empty entries and repeats are dropped, keeping the first
// occurrence.
func ParseRoles(field string) []string {
	var roles []string
	for _, part := range strings.Split(field, ",") {
		r := norm.NFC.String(strings.TrimSpace(part))
		if r == "" || slices.Contains(roles, r) {
			continue
		}
		roles = append(roles, r)
	}
	return roles
}
