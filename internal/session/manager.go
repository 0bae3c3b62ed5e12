// Package session owns the authenticated-session lifecycle: the
// checking/authenticated/unauthenticated state machine, the OTP init/verify
// round trips, single-flight token refresh, and logout. The Manager is
// constructed once at startup and handed to every consumer explicitly; there
// is no ambient global auth state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/api"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/device"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/sentinel"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/tokens"
	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
	"github.com/omprakashsrv/ampairs-app-sub000/pkg/validation"
)

// Status is the authentication state of the client.
type Status string

const (
	StatusChecking        Status = "checking"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Reason distinguishes logout causes for user-facing messaging. The state
// transition is identical regardless of reason.
type Reason string

const (
	ReasonUser           Reason = "user_requested"
	ReasonSessionExpired Reason = "session_expired"
)

// Snapshot is what subscribers observe on every state change. User may lag
// one round trip behind Status: the profile fetch is best-effort and never
// gates authentication.
type Snapshot struct {
	Status       Status
	User         *api.User
	LogoutReason Reason
}

// Config carries the static parameters of the auth flow.
type Config struct {
	CountryCode    string
	ExpiryDefaults tokens.ExpiryDefaults
}

// Manager is the session state machine. All methods are safe for concurrent
// use; no lock is ever held across a network call.
type Manager struct {
	log     *slog.Logger
	store   tokens.Store
	devices *device.Provider
	meta    device.Metadata
	cfg     Config

	client *api.Client

	mu           sync.Mutex
	status       Status
	user         *api.User
	logoutReason Reason
	subs         map[int]func(Snapshot)
	nextSub      int

	// refreshGroup collapses every concurrent refresh demand (interceptor
	// 401s, startup check) into one network call with one shared outcome.
	refreshGroup singleflight.Group

	now func() time.Time
}

// NewManager constructs a Manager in the checking state. Bind must be called
// with the API client before any operation; the two-step wiring exists
// because the client's transport chain needs the manager as its TokenSource.
func NewManager(log *slog.Logger, store tokens.Store, devices *device.Provider, meta device.Metadata, cfg Config) *Manager {
	return &Manager{
		log:     log,
		store:   store,
		devices: devices,
		meta:    meta,
		cfg:     cfg,
		status:  StatusChecking,
		subs:    make(map[int]func(Snapshot)),
		now:     time.Now,
	}
}

// Bind completes the wiring cycle between manager and API client.
func (m *Manager) Bind(client *api.Client) {
	m.client = client
}

// Current returns the present snapshot.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, User: m.user, LogoutReason: m.logoutReason}
}

// Subscribe registers a state-change callback and returns a cancel function.
// The callback runs outside the manager lock.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// InitAuth starts a phone-OTP login and returns the server-issued session id.
func (m *Manager) InitAuth(ctx context.Context, mobileNumber, recaptchaToken string) (string, error) {
	if err := validation.MobileNumber(mobileNumber); err != nil {
		return "", err
	}

	resp, err := m.client.InitAuth(ctx, api.InitAuthRequest{
		Phone:          mobileNumber,
		CountryCode:    m.cfg.CountryCode,
		RecaptchaToken: recaptchaToken,
		DeviceID:       m.devices.DeviceID(ctx),
		DeviceName:     m.meta.DeviceName,
		DeviceType:     m.meta.DeviceType,
		Platform:       m.meta.Platform,
		Browser:        m.meta.Browser,
		OS:             m.meta.OS,
	})
	if err != nil {
		return "", err
	}
	m.log.Info("otp challenge issued", "session_id", resp.SessionID)
	return resp.SessionID, nil
}

// VerifyOTP completes the login. On success the token pair is persisted, the
// status flips to authenticated, and the profile is fetched best-effort: a
// profile failure is logged but never reverts authentication.
func (m *Manager) VerifyOTP(ctx context.Context, sessionID, otp, recaptchaToken string) error {
	resp, err := m.client.VerifyOTP(ctx, api.VerifyOTPRequest{
		SessionID:      sessionID,
		OTP:            otp,
		RecaptchaToken: recaptchaToken,
		DeviceID:       m.devices.DeviceID(ctx),
		DeviceName:     m.meta.DeviceName,
	})
	if err != nil {
		verifyFailures.Inc()
		return err
	}
	return m.installTokens(ctx, resp)
}

// VerifyFirebase is the alternate verification path via the third-party
// phone-verification provider.
func (m *Manager) VerifyFirebase(ctx context.Context, firebaseIDToken, mobileNumber string) error {
	resp, err := m.client.VerifyFirebase(ctx, api.VerifyFirebaseRequest{
		FirebaseIDToken: firebaseIDToken,
		CountryCode:     m.cfg.CountryCode,
		Phone:           mobileNumber,
		DeviceID:        m.devices.DeviceID(ctx),
		DeviceName:      m.meta.DeviceName,
		DeviceType:      m.meta.DeviceType,
		Platform:        m.meta.Platform,
		Browser:         m.meta.Browser,
		OS:              m.meta.OS,
	})
	if err != nil {
		verifyFailures.Inc()
		return err
	}
	return m.installTokens(ctx, resp)
}

func (m *Manager) installTokens(ctx context.Context, resp *api.TokenResponse) error {
	pair := tokens.NewPair(m.log,
		resp.AccessToken, resp.RefreshToken,
		resp.AccessTokenExpiresAt, resp.RefreshTokenExpiresAt,
		m.cfg.ExpiryDefaults, m.now())
	if err := m.store.Set(ctx, pair); err != nil {
		return apierrors.Wrap(err, apierrors.CodeInternal, "persist token pair")
	}

	m.setAuthenticated()

	if err := m.fetchProfile(ctx); err != nil {
		m.log.Warn("profile fetch after verify failed", "error", err)
	}
	return nil
}

// Refresh rotates the token pair. Concurrent callers share a single network
// call and its outcome. Any failure resolves the session to logged-out
// immediately; refresh is never silently retried.
func (m *Manager) Refresh(ctx context.Context) error {
	// The flight outlives any individual caller: one cancelled waiter must
	// not abort the refresh every other waiter depends on.
	flightCtx := context.WithoutCancel(ctx)
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return nil, m.doRefresh(flightCtx)
	})
	return err
}

func (m *Manager) doRefresh(ctx context.Context) error {
	refreshToken, err := m.store.Get(ctx, tokens.KindRefresh)
	if err != nil {
		refreshTotal.WithLabelValues("missing_token").Inc()
		m.Logout(ctx, ReasonSessionExpired)
		return apierrors.Wrap(err, apierrors.CodeAuthenticationFailed, "no refresh token available")
	}

	resp, err := m.client.RefreshToken(ctx, refreshToken, m.devices.DeviceID(ctx))
	if err != nil {
		refreshTotal.WithLabelValues("failure").Inc()
		m.log.Warn("token refresh failed, logging out", "error", err)
		m.Logout(ctx, ReasonSessionExpired)
		return apierrors.Wrap(err, apierrors.CodeAuthenticationFailed, "token refresh rejected")
	}

	pair := tokens.NewPair(m.log,
		resp.AccessToken, resp.RefreshToken,
		resp.AccessTokenExpiresAt, resp.RefreshTokenExpiresAt,
		m.cfg.ExpiryDefaults, m.now())
	if err := m.store.Set(ctx, pair); err != nil {
		refreshTotal.WithLabelValues("failure").Inc()
		m.Logout(ctx, ReasonSessionExpired)
		return apierrors.Wrap(err, apierrors.CodeInternal, "persist refreshed tokens")
	}

	refreshTotal.WithLabelValues("success").Inc()
	m.setAuthenticated()
	return nil
}

// Logout clears the session. The server call is best-effort; the local state
// transition always happens and is idempotent.
func (m *Manager) Logout(ctx context.Context, reason Reason) {
	if refreshToken, err := m.store.Get(ctx, tokens.KindRefresh); err == nil {
		if err := m.client.Logout(ctx, refreshToken, m.devices.DeviceID(ctx)); err != nil {
			m.log.Debug("server logout failed, continuing", "error", err)
		}
	}
	m.clearLocal(ctx, reason)
}

// LogoutAll revokes every session of the user server-side, then clears local
// state.
func (m *Manager) LogoutAll(ctx context.Context) error {
	err := m.client.LogoutAll(ctx)
	m.clearLocal(ctx, ReasonUser)
	return err
}

func (m *Manager) clearLocal(ctx context.Context, reason Reason) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("token store clear failed", "error", err)
	}

	m.mu.Lock()
	m.user = nil
	m.logoutReason = reason
	changed := m.status != StatusUnauthenticated
	m.status = StatusUnauthenticated
	snap := Snapshot{Status: m.status, LogoutReason: reason}
	subs := m.snapshotSubs()
	m.mu.Unlock()

	logoutsTotal.WithLabelValues(string(reason)).Inc()
	if changed {
		m.log.Info("session cleared", "reason", reason)
	}
	m.notify(subs, snap)
}

// CheckAuthenticationStatus resolves the startup state. It performs at most
// one refresh attempt, never a loop:
//   - usable access token: optimistically authenticated, fetch profile; if
//     the profile fetch fails, one refresh, then give up to logout.
//   - refresh token only: one refresh.
//   - nothing: unauthenticated.
func (m *Manager) CheckAuthenticationStatus(ctx context.Context) {
	m.setStatus(StatusChecking)

	access, err := m.store.Get(ctx, tokens.KindAccess)
	if err == nil && tokens.Usable(access, m.now()) {
		m.setAuthenticated()
		if err := m.fetchProfile(ctx); err != nil {
			m.log.Warn("startup profile fetch failed, attempting one refresh", "error", err)
			if err := m.Refresh(ctx); err != nil {
				return // Refresh already resolved to logout
			}
			if err := m.fetchProfile(ctx); err != nil {
				m.log.Warn("profile fetch after refresh failed", "error", err)
			}
		}
		return
	}

	if _, err := m.store.Get(ctx, tokens.KindRefresh); err == nil {
		if err := m.Refresh(ctx); err == nil {
			if err := m.fetchProfile(ctx); err != nil {
				m.log.Warn("profile fetch after startup refresh failed", "error", err)
			}
		}
		return
	}

	m.clearLocalQuiet(ctx)
}

// clearLocalQuiet is the no-tokens startup path: nothing to revoke
// server-side, no session-expired messaging.
func (m *Manager) clearLocalQuiet(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		m.log.Debug("token store clear failed", "error", err)
	}
	m.setStatus(StatusUnauthenticated)
}

func (m *Manager) fetchProfile(ctx context.Context) error {
	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	m.mu.Lock()
	m.user = user
	snap := Snapshot{Status: m.status, User: m.user}
	subs := m.snapshotSubs()
	m.mu.Unlock()

	m.notify(subs, snap)
	return nil
}

func (m *Manager) setAuthenticated() {
	m.mu.Lock()
	m.logoutReason = ""
	changed := m.status != StatusAuthenticated
	m.status = StatusAuthenticated
	snap := Snapshot{Status: m.status, User: m.user}
	subs := m.snapshotSubs()
	m.mu.Unlock()

	if changed {
		m.log.Info("session authenticated")
		m.notify(subs, snap)
	}
}

func (m *Manager) setStatus(status Status) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	snap := Snapshot{Status: m.status, User: m.user, LogoutReason: m.logoutReason}
	subs := m.snapshotSubs()
	m.mu.Unlock()

	if changed {
		m.notify(subs, snap)
	}
}

func (m *Manager) snapshotSubs() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}

func (m *Manager) notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
