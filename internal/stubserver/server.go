// Package stubserver is a self-contained fake of the ampairs backend for
// local development and tests. It speaks the real enveloped contract: OTP
// init/verify, token refresh with rotation, logout, profile, and a small
// workspace subset. Token semantics are real enough to exercise the client
// (three-segment JWTs with live exp claims, rotated refresh tokens).
package stubserver

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// Options tune token lifetimes and the accepted OTP.
type Options struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	OTP        string
}

func (o Options) withDefaults() Options {
	if len(o.Secret) == 0 {
		o.Secret = []byte("stub-secret")
	}
	if o.AccessTTL == 0 {
		o.AccessTTL = time.Hour
	}
	if o.RefreshTTL == 0 {
		o.RefreshTTL = 7 * 24 * time.Hour
	}
	if o.OTP == "" {
		o.OTP = "123456"
	}
	return o
}

type otpSession struct {
	phone    string
	attempts int
	issuedAt time.Time
}

// Server holds the fake backend state. Counters are exported for tests that
// assert on refresh traffic.
type Server struct {
	opts Options

	mu            sync.Mutex
	otpSessions   map[string]*otpSession
	refreshTokens map[string]string // refresh token -> user id
	workspaces    map[string]workspaceRecord
	roles         map[string]roleRecord

	RefreshCalls        atomic.Int32
	LogoutCalls         atomic.Int32
	LastWorkspaceHeader atomic.Value // string
}

type workspaceRecord struct {
	ID   string
	Name string
	Slug string
}

type roleRecord struct {
	ID          string
	Name        string
	Permissions []string
}

// New builds a stub backend.
func New(opts Options) *Server {
	s := &Server{
		opts:          opts.withDefaults(),
		otpSessions:   make(map[string]*otpSession),
		refreshTokens: make(map[string]string),
		workspaces:    make(map[string]workspaceRecord),
		roles:         make(map[string]roleRecord),
	}
	s.workspaces["ws-1"] = workspaceRecord{ID: "ws-1", Name: "Acme Traders", Slug: "acme"}
	s.roles["role-owner"] = roleRecord{ID: "role-owner", Name: "owner", Permissions: []string{"*"}}
	s.roles["role-staff"] = roleRecord{ID: "role-staff", Name: "staff", Permissions: []string{"orders:read", "orders:write"}}
	return s
}

// Handler returns the chi router implementing the contract.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Workspace-Id"},
	}))

	r.Post("/auth/v1/init", s.handleInit)
	r.Post("/auth/v1/verify", s.handleVerify)
	r.Post("/auth/v1/verify/firebase", s.handleVerifyFirebase)
	r.Post("/auth/v1/refresh_token", s.handleRefresh)
	r.Post("/auth/v1/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/auth/v1/logout/all", s.handleLogoutAll)
		r.Get("/auth/v1/devices", s.handleListDevices)
		r.Post("/auth/v1/devices/{deviceID}/logout", s.handleDeviceLogout)
		r.Get("/user/v1", s.handleProfile)
		r.Get("/workspace/v1", s.handleListWorkspaces)
		r.Post("/workspace/v1", s.handleCreateWorkspace)
		r.Get("/workspace/v1/{workspaceID}", s.handleGetWorkspace)
		r.Put("/workspace/v1/{workspaceID}", s.handleUpdateWorkspace)
		r.Get("/member/v1", s.handleListMembers)
		r.Post("/member/v1", s.handleInviteMember)
		r.Delete("/member/v1/{memberID}", s.handleRemoveMember)
		r.Get("/role/v1", s.handleListRoles)
		r.Put("/role/v1/{roleID}", s.handleUpdateRole)
	})

	return r
}

// OTP returns the code the stub accepts, for test prompts.
func (s *Server) OTP() string { return s.opts.OTP }

// MintTokens issues a token pair directly, bypassing the OTP dance. Tests use
// a negative accessTTL to produce an already-expired access token backed by a
// still-valid refresh token.
func (s *Server) MintTokens(accessTTL time.Duration) (access, refresh string) {
	return s.issuePair("user-1", accessTTL)
}

// RevokeRefreshTokens invalidates every outstanding refresh token, simulating
// server-side session revocation.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = make(map[string]string)
}

func (s *Server) issuePair(userID string, accessTTL time.Duration) (string, string) {
	access := s.mintAccessToken(userID, accessTTL)
	refresh := "rt_" + uuid.NewString()

	s.mu.Lock()
	s.refreshTokens[refresh] = userID
	s.mu.Unlock()
	return access, refresh
}
