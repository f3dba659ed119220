// Package dashboard binds a list controller, a record source and the session
// into one page that can be refreshed safely from concurrent callers.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jmcleod/erpdesk/list"
	"github.com/jmcleod/erpdesk/session"
	"github.com/jmcleod/erpdesk/source"
)

var (
	// ErrSessionExpired is returned by Refresh when there is no valid session.
	ErrSessionExpired = errors.New("session expired")
	// ErrSuperseded is returned by a Refresh whose result was discarded
	// because a newer Refresh started before it finished.
	ErrSuperseded = errors.New("refresh superseded by a newer request")
)

// Page is one list view. The last Refresh to start is the only one allowed
// to update the controller; earlier in-flight requests are cancelled and
// their results dropped.
type Page[R any] struct {
	ctrl   *list.Controller[R]
	src    source.Source[R]
	sess   *session.Manager
	logger *slog.Logger
	name   string

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	loading bool
	err     error
}

// PageOption configures a Page.
type PageOption func(*pageOptions)

type pageOptions struct {
	logger *slog.Logger
	name   string
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *slog.Logger) PageOption {
	return func(o *pageOptions) { o.logger = l }
}

// WithName labels the page in log records.
func WithName(name string) PageOption {
	return func(o *pageOptions) { o.name = name }
}

// NewPage returns a Page. The session's logger is used unless WithLogger is
// given.
func NewPage[R any](ctrl *list.Controller[R], src source.Source[R], sess *session.Manager, opts ...PageOption) *Page[R] {
	o := pageOptions{logger: sess.Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Page[R]{
		ctrl:   ctrl,
		src:    src,
		sess:   sess,
		logger: o.logger.With("component", "dashboard"),
		name:   o.name,
	}
}

// Controller returns the page's controller.
func (p *Page[R]) Controller() *list.Controller[R] { return p.ctrl }

// Err returns the error of the last completed Refresh, if it failed.
func (p *Page[R]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Loading reports whether a Refresh is in flight.
func (p *Page[R]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Refresh fetches records for the controller's current query. On success
// the controller's records are replaced; on failure they are kept and the
// error is returned and retained for Err.
func (p *Page[R]) Refresh(ctx context.Context) error {
	valid, err := p.sess.Validate(ctx)
	if err != nil {
		p.logger.Warn("session validation failed", "page", p.name, "error", err)
	}
	if !valid {
		p.mu.Lock()
		p.err = ErrSessionExpired
		p.mu.Unlock()
		return ErrSessionExpired
	}

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.cancel = cancel
	p.loading = true
	p.mu.Unlock()

	auth := p.sess.AuthContext()
	for attempt := 0; ; attempt++ {
		q := p.ctrl.Query()
		res, err := p.src.Fetch(reqCtx, q, auth)

		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			return ErrSuperseded
		}
		if err == nil && p.ctrl.Mode() == list.ServerSide {
			p.ctrl.ReplacePage(res.Data, res.Total)
			// A shrunken total clamps the page; the rows held belong to the old one.
			if attempt == 0 && p.ctrl.State().Page != q.Page {
				p.mu.Unlock()
				continue
			}
		} else if err == nil {
			p.ctrl.ReplaceRecords(res.Data)
		}
		p.cancel = nil
		p.loading = false
		p.err = err
		p.mu.Unlock()

		if err != nil {
			p.logger.Warn("fetch failed", "page", p.name, "error", err)
		}
		return err
	}
}

// Interact applies a user action to the controller. It counts as session
// activity. In ServerSide mode the page is refreshed afterwards, since the
// server owns filtering, sorting and paging.
func (p *Page[R]) Interact(ctx context.Context, action func(*list.Controller[R])) error {
	if err := p.sess.Touch(ctx); err != nil {
		return err
	}
	action(p.ctrl)
	if p.ctrl.Mode() == list.ServerSide {
		return p.Refresh(ctx)
	}
	return nil
}
