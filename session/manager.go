package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jmcleod/erpdesk/storage"
)

const (
	DefaultTimeout     = 30 * time.Minute
	DefaultIdentityKey = "session.identity"
	DefaultActivityKey = "session.last_activity"
)

// State is a point-in-time copy of the session. Valid is re-derived from
// the clock when the snapshot is taken.
type State struct {
	Identity     *Identity
	Roles        []string
	ActiveRole   string
	LastActivity time.Time
	Timeout      time.Duration
	Valid        bool
}

// AuthContext is what a record source needs to act on behalf of the user.
type AuthContext struct {
	Identity   Identity
	ActiveRole string
}

// Anonymous reports whether no identity is attached.
func (a AuthContext) Anonymous() bool {
	return a.Identity.ID == "" && a.Identity.Email == ""
}

type observer struct {
	id int
	fn func(State)
}

// Manager owns the current session. It is safe for concurrent use; every
// mutation is applied under one lock so readers never see a partial update.
type Manager struct {
	mu sync.RWMutex

	store       storage.Store
	now         func() time.Time
	timeout     time.Duration
	identityKey string
	activityKey string
	logger      *slog.Logger

	identity     *Identity
	roles        []string
	activeRole   string
	lastActivity int64 // epoch ms

	observers []observer
	nextObsID int
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the idle timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithKeys overrides the two persisted key names.
func WithKeys(identityKey, activityKey string) Option {
	return func(m *Manager) {
		if identityKey != "" {
			m.identityKey = identityKey
		}
		if activityKey != "" {
			m.activityKey = activityKey
		}
	}
}

// WithLogger attaches a logger that hosts can retrieve with Logger. The
// Manager itself does not log.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns an anonymous Manager backed by store. Call Restore to
// pick up a persisted session.
func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		now:         time.Now,
		timeout:     DefaultTimeout,
		identityKey: DefaultIdentityKey,
		activityKey: DefaultActivityKey,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Logger returns the logger configured with WithLogger.
func (m *Manager) Logger() *slog.Logger { return m.logger }

// Timeout returns the configured idle timeout.
func (m *Manager) Timeout() time.Duration { return m.timeout }

// Restore loads the persisted session. Missing keys leave the session
// anonymous. An idle or unreadable session is cleared from the store.
// Restoring never counts as activity.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return ErrNoStore
	}

	m.mu.Lock()
	ident, last, err := m.readPersisted(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.resetLocked()
		m.mu.Unlock()
		return nil
	case errors.Is(err, storage.ErrCorrupt):
		m.resetLocked()
		err = m.clearPersisted(ctx)
		m.mu.Unlock()
		return err
	case err != nil:
		m.mu.Unlock()
		return err
	}

	if m.nowMillis()-last > m.timeout.Milliseconds() {
		m.resetLocked()
		err = m.clearPersisted(ctx)
		m.mu.Unlock()
		return err
	}

	m.identity = &ident
	m.roles = ident.Roles()
	m.activeRole = firstOrEmpty(m.roles)
	m.lastActivity = last
	m.mu.Unlock()

	m.notify()
	return nil
}

// Login persists ident as the signed-in user and records activity now. The
// previous active role survives only when the same identity signs in again
// and still holds it. Credentials are never checked here.
func (m *Manager) Login(ctx context.Context, ident Identity) error {
	if m.store == nil {
		return ErrNoStore
	}
	ident = ident.clone()
	payload, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}

	m.mu.Lock()
	now := m.nowMillis()
	err = m.store.Batch(ctx, func(tx storage.BatchTx) error {
		if err := tx.Put(m.identityKey, string(payload)); err != nil {
			return err
		}
		return tx.Put(m.activityKey, strconv.FormatInt(now, 10))
	})
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persisting session: %w", err)
	}

	roles := ident.Roles()
	active := firstOrEmpty(roles)
	if m.identity != nil && m.identity.ID == ident.ID && slices.Contains(roles, m.activeRole) {
		active = m.activeRole
	}
	m.identity = &ident
	m.roles = roles
	m.activeRole = active
	m.lastActivity = now
	m.mu.Unlock()

	m.notify()
	return nil
}

// Logout clears the session in memory and in the store. Logging out an
// anonymous session succeeds.
func (m *Manager) Logout(ctx context.Context) error {
	if m.store == nil {
		return ErrNoStore
	}

	m.mu.Lock()
	err := m.clearPersisted(ctx)
	m.resetLocked()
	m.mu.Unlock()

	m.notify()
	return err
}

// SwitchRole makes role the active role. It fails with *InvalidRoleError when
// the role is not granted or the session has gone idle, leaving the session
// untouched. Switching does not count as activity.
func (m *Manager) SwitchRole(role string) error {
	m.mu.Lock()
	if !m.validLocked() {
		m.mu.Unlock()
		return &InvalidRoleError{Role: role}
	}
	if !slices.Contains(m.roles, role) {
		err := &InvalidRoleError{Role: role, Allowed: slices.Clone(m.roles)}
		m.mu.Unlock()
		return err
	}
	m.activeRole = role
	m.mu.Unlock()

	m.notify()
	return nil
}

// Touch records user activity. The new timestamp is always strictly greater
// than the previous one. An anonymous or expired session is left as is.
func (m *Manager) Touch(ctx context.Context) error {
	if m.store == nil {
		return ErrNoStore
	}

	m.mu.Lock()
	if !m.validLocked() {
		m.mu.Unlock()
		return nil
	}
	now := max(m.nowMillis(), m.lastActivity+1)
	if err := m.store.Put(ctx, m.activityKey, strconv.FormatInt(now, 10)); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persisting activity: %w", err)
	}
	m.lastActivity = now
	m.mu.Unlock()

	m.notify()
	return nil
}

// IsValid reports whether an identity is present and has not been idle
// longer than the timeout.
func (m *Manager) IsValid() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validLocked()
}

// Validate is IsValid with read-time expiry: a held identity that has gone
// idle is cleared from memory and the store before false is returned.
func (m *Manager) Validate(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return false, nil
	}
	if m.validLocked() {
		m.mu.Unlock()
		return true, nil
	}

	var err error
	if m.store != nil {
		err = m.clearPersisted(ctx)
	}
	m.resetLocked()
	m.mu.Unlock()

	m.notify()
	return false, err
}

// State returns a snapshot of the session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

// AuthContext returns the identity and active role for outgoing requests.
// It is empty for an anonymous or expired session.
func (m *Manager) AuthContext() AuthContext {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.validLocked() {
		return AuthContext{}
	}
	return AuthContext{Identity: m.identity.clone(), ActiveRole: m.activeRole}
}

// Subscribe registers fn to receive a snapshot after every change. Callbacks
// run outside the lock in registration order. The returned func unregisters.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, observer{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.observers = slices.DeleteFunc(m.observers, func(o observer) bool { return o.id == id })
		})
	}
}

func (m *Manager) notify() {
	m.mu.RLock()
	st := m.stateLocked()
	obs := slices.Clone(m.observers)
	m.mu.RUnlock()

	for _, o := range obs {
		o.fn(st)
	}
}

func (m *Manager) stateLocked() State {
	st := State{
		Roles:      slices.Clone(m.roles),
		ActiveRole: m.activeRole,
		Timeout:    m.timeout,
		Valid:      m.validLocked(),
	}
	if m.identity != nil {
		ident := m.identity.clone()
		st.Identity = &ident
		st.LastActivity = time.UnixMilli(m.lastActivity)
	}
	return st
}

func (m *Manager) validLocked() bool {
	return m.identity != nil && m.nowMillis()-m.lastActivity <= m.timeout.Milliseconds()
}

func (m *Manager) resetLocked() {
	m.identity = nil
	m.roles = nil
	m.activeRole = ""
	m.lastActivity = 0
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}

// readPersisted returns storage.ErrNotFound when no session is stored and
// storage.ErrCorrupt when only part of it is, or it cannot be decoded.
func (m *Manager) readPersisted(ctx context.Context) (Identity, int64, error) {
	var ident Identity
	rawIdent, errIdent := m.store.Get(ctx, m.identityKey)
	rawLast, errLast := m.store.Get(ctx, m.activityKey)

	identMissing := errors.Is(errIdent, storage.ErrNotFound)
	lastMissing := errors.Is(errLast, storage.ErrNotFound)
	switch {
	case identMissing && lastMissing:
		return ident, 0, storage.ErrNotFound
	case identMissing || lastMissing:
		return ident, 0, fmt.Errorf("partial session: %w", storage.ErrCorrupt)
	case errIdent != nil:
		return ident, 0, fmt.Errorf("reading identity: %w", errIdent)
	case errLast != nil:
		return ident, 0, fmt.Errorf("reading activity: %w", errLast)
	}

	if err := json.Unmarshal([]byte(rawIdent), &ident); err != nil {
		return ident, 0, fmt.Errorf("decoding identity: %w: %v", storage.ErrCorrupt, err)
	}
	last, err := strconv.ParseInt(rawLast, 10, 64)
	if err != nil {
		return ident, 0, fmt.Errorf("decoding activity: %w: %v", storage.ErrCorrupt, err)
	}
	return ident, last, nil
}

// clearPersisted removes both keys. A layout with only one key left is
// cleaned up key by key.
func (m *Manager) clearPersisted(ctx context.Context) error {
	err := m.store.Batch(ctx, func(tx storage.BatchTx) error {
		if err := tx.Delete(m.identityKey); err != nil {
			return err
		}
		return tx.Delete(m.activityKey)
	})
	if errors.Is(err, storage.ErrNotFound) {
		err = errors.Join(
			storage.IgnoreNotFound(m.store.Delete(ctx, m.identityKey)),
			storage.IgnoreNotFound(m.store.Delete(ctx, m.activityKey)),
		)
	}
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
