// Package session tracks who is signed in to the dashboard, which of their
// roles is active, and whether the session is still fresh.
//
// Freshness is an idle timeout evaluated on read: IsValid, State and Validate
// compare the clock against the last recorded activity every time they are
// called. Nothing runs in the background, so a Manager needs no shutdown.
//
// The session is persisted in a storage.Store under two keys, the identity
// as JSON and the last activity as decimal epoch milliseconds. Both are
// written together on Login and removed together on Logout or expiry.
package session
