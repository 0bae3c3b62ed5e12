package session

import (
	"context"
	"errors"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/sentinel"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/tokens"
)

// The Manager is the transport chain's TokenSource: the bearer middleware
// asks it for credentials and delegates 401 recovery to it.

// AccessToken returns the current access token, or empty when none is stored
// or the stored one is expired. An empty return means the request goes out
// without an Authorization header and the 401 path takes over.
func (m *Manager) AccessToken(ctx context.Context) string {
	tok, err := m.store.Get(ctx, tokens.KindAccess)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrExpired) {
			m.log.Warn("access token read failed", "error", err)
		}
		return ""
	}
	return tok
}

// HasRefreshToken reports whether a refresh is worth attempting.
func (m *Manager) HasRefreshToken(ctx context.Context) bool {
	_, err := m.store.Get(ctx, tokens.KindRefresh)
	return err == nil
}

// InvalidateSession is the terminal 401 path: a protected call failed and no
// recovery is possible.
func (m *Manager) InvalidateSession(ctx context.Context, reason string) {
	m.log.Info("session invalidated by transport", "reason", reason)
	m.Logout(ctx, ReasonSessionExpired)
}
