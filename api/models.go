package api

import "github.com/jmcleod/erpdesk/source/rest"

// envelope is the response wrapper every endpoint writes. It is the same
// type the dashboard client decodes.
type envelope[T any] = rest.Envelope[T]

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email string `json:"email"`
}

// MeResponse describes the caller resolved from the identity headers.
type MeResponse struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	Name       string            `json:"name"`
	Roles      []string          `json:"roles"`
	ActiveRole string            `json:"active_role"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
