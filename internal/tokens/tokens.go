// Package tokens persists the access/refresh token pair across process
// restarts and answers the one question the rest of the SDK keeps asking:
// is this bearer token still usable right now?
package tokens

import (
	"context"
	"log/slog"
	"time"
)

// Kind selects which half of the pair a Get refers to.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Pair is the stored credential set with absolute expiries.
type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Store persists the token pair. Implementations must survive process
// restarts (file, Redis) or be explicitly test-only (memory). Get returns
// sentinel.ErrNotFound for a missing token and sentinel.ErrExpired for one
// whose stored lifetime has lapsed.
type Store interface {
	Get(ctx context.Context, kind Kind) (string, error)
	Set(ctx context.Context, pair Pair) error
	Clear(ctx context.Context) error
}

// ExpiryDefaults carries the fallback lifetimes used when the server omits or
// garbles an expiry timestamp.
type ExpiryDefaults struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewPair resolves the server-supplied expiry strings into a storable Pair.
// Expiries arrive as RFC 3339 timestamps and are optional; a malformed value
// is logged and the default lifetime applied instead. This never fails: a
// token pair from a successful verify or refresh must always be persistable.
func NewPair(log *slog.Logger, access, refresh, accessExpiresAt, refreshExpiresAt string, defaults ExpiryDefaults, now time.Time) Pair {
	if defaults.AccessTTL <= 0 {
		defaults.AccessTTL = time.Hour
	}
	if defaults.RefreshTTL <= 0 {
		defaults.RefreshTTL = 7 * 24 * time.Hour
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  resolveExpiry(log, "access", accessExpiresAt, now.Add(defaults.AccessTTL)),
		RefreshExpiresAt: resolveExpiry(log, "refresh", refreshExpiresAt, now.Add(defaults.RefreshTTL)),
	}
}

func resolveExpiry(log *slog.Logger, kind, raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if log != nil {
			log.Warn("malformed token expiry, using default", "kind", kind, "value", raw, "error", err)
		}
		return fallback
	}
	return at
}
