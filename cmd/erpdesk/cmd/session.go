package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jmcleod/erpdesk/session"
)

var errNotLoggedIn = errors.New("not logged in or session expired; run \"erpdesk login <email>\"")

// openSession opens the session store and restores the persisted session.
func openSession(ctx context.Context) (*session.Manager, func(), error) {
	store, closeFn, err := openStore(ctx, cfg.Store, nsSession)
	if err != nil {
		return nil, nil, err
	}
	mgr := session.NewManager(store,
		session.WithTimeout(cfg.Session.Timeout),
		session.WithLogger(logger),
	)
	if err := mgr.Restore(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("restoring session: %w", err)
	}
	return mgr, closeFn, nil
}

// requireSession restores the session and applies role when set.
func requireSession(ctx context.Context, role string) (*session.Manager, func(), error) {
	mgr, closeFn, err := openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !mgr.IsValid() {
		closeFn()
		return nil, nil, errNotLoggedIn
	}
	if role != "" {
		if err := mgr.SwitchRole(role); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return mgr, closeFn, nil
}

func printState(w io.Writer, st session.State, now time.Time) {
	if st.Identity == nil || !st.Valid {
		fmt.Fprintln(w, "Not logged in.")
		return
	}
	fmt.Fprintf(w, "User:        %s <%s> (id %s)\n", st.Identity.Name, st.Identity.Email, st.Identity.ID)
	fmt.Fprintf(w, "Roles:       %v\n", st.Roles)
	fmt.Fprintf(w, "Active role: %s\n", st.ActiveRole)
	fmt.Fprintf(w, "Last active: %s\n", st.LastActivity.Local().Format(time.RFC3339))
	left := st.LastActivity.Add(st.Timeout).Sub(now).Round(time.Second)
	fmt.Fprintf(w, "Expires in:  %s\n", max(left, 0))
}
