package stubserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const maxOTPAttempts = 5

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone       string `json:"phone"`
		CountryCode string `json:"country_code"`
		DeviceID    string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	if !validPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "phone must be 10 digits")
		return
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "device_id is required")
		return
	}

	sessionID := uuid.NewString()
	s.mu.Lock()
	s.otpSessions[sessionID] = &otpSession{phone: req.Phone, issuedAt: time.Now()}
	s.mu.Unlock()

	writeData(w, map[string]string{
		"message":    "OTP sent",
		"session_id": sessionID,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		OTP       string `json:"otp"`
		AuthMode  string `json:"auth_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}

	s.mu.Lock()
	sess, ok := s.otpSessions[req.SessionID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusGone, "SESSION_EXPIRED", "verification session is no longer valid")
		return
	}
	if req.OTP != s.opts.OTP {
		sess.attempts++
		tooMany := sess.attempts >= maxOTPAttempts
		if tooMany {
			delete(s.otpSessions, req.SessionID)
		}
		s.mu.Unlock()
		if tooMany {
			writeError(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "verification attempts exhausted")
			return
		}
		writeError(w, http.StatusUnauthorized, "INVALID_OTP", "incorrect verification code")
		return
	}
	delete(s.otpSessions, req.SessionID)
	s.mu.Unlock()

	s.writeTokens(w)
}

func (s *Server) handleVerifyFirebase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirebaseIDToken string `json:"firebase_id_token"`
		Phone           string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FirebaseIDToken == "" {
		writeError(w, http.StatusUnauthorized, "AUTHENTICATION_FAILED", "firebase token rejected")
		return
	}
	s.writeTokens(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.RefreshCalls.Add(1)

	var req struct {
		RefreshToken string `json:"refresh_token"`
		DeviceID     string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}

	s.mu.Lock()
	userID, ok := s.refreshTokens[req.RefreshToken]
	if ok {
		// Rotation: the presented token is consumed.
		delete(s.refreshTokens, req.RefreshToken)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTHENTICATION_FAILED", "refresh token is invalid or expired")
		return
	}

	access, refresh := s.issuePair(userID, s.opts.AccessTTL)
	writeTokenPair(w, access, refresh, s.opts)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.LogoutCalls.Add(1)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	delete(s.refreshTokens, req.RefreshToken)
	s.mu.Unlock()

	writeData(w, map[string]string{"message": "logged out"})
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	s.RevokeRefreshTokens()
	writeData(w, map[string]string{"message": "all sessions revoked"})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	writeData(w, []map[string]any{
		{
			"id":          "dev-1",
			"device_name": "Chrome on macOS",
			"device_type": "desktop",
			"platform":    "desktop",
			"browser":     "chrome",
			"os":          "mac os x",
			"current":     true,
		},
	})
}

func (s *Server) handleDeviceLogout(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "deviceID") == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown device")
		return
	}
	writeData(w, map[string]string{"message": "device logged out"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"id":         "user-1",
		"first_name": "Asha",
		"last_name":  "Verma",
		"phone":      "9876543210",
		"full_name":  "Asha Verma",
		"active":     true,
	})
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		out = append(out, map[string]any{
			"id":     ws.ID,
			"name":   ws.Name,
			"slug":   ws.Slug,
			"active": true,
		})
	}
	s.mu.Unlock()
	writeData(w, out)
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return
	}

	ws := workspaceRecord{ID: "ws-" + uuid.NewString()[:8], Name: req.Name, Slug: req.Slug}
	s.mu.Lock()
	s.workspaces[ws.ID] = ws
	s.mu.Unlock()

	writeData(w, map[string]any{"id": ws.ID, "name": ws.Name, "slug": ws.Slug, "active": true})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ws, ok := s.workspaces[chi.URLParam(r, "workspaceID")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown workspace")
		return
	}
	writeData(w, map[string]any{"id": ws.ID, "name": ws.Name, "slug": ws.Slug, "active": true})
}

func (s *Server) handleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}

	s.mu.Lock()
	ws, ok := s.workspaces[chi.URLParam(r, "workspaceID")]
	if ok {
		if req.Name != "" {
			ws.Name = req.Name
		}
		if req.Slug != "" {
			ws.Slug = req.Slug
		}
		s.workspaces[ws.ID] = ws
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown workspace")
		return
	}
	writeData(w, map[string]any{"id": ws.ID, "name": ws.Name, "slug": ws.Slug, "active": true})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.Header.Get("X-Workspace-Id")
	s.LastWorkspaceHeader.Store(workspaceID)
	if workspaceID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "workspace header is required")
		return
	}
	writeData(w, []map[string]any{
		{
			"id":        "mem-1",
			"user_id":   "user-1",
			"full_name": "Asha Verma",
			"phone":     "9876543210",
			"role":      "owner",
			"active":    true,
		},
	})
}

func (s *Server) handleInviteMember(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Workspace-Id") == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "workspace header is required")
		return
	}
	var req struct {
		Phone string `json:"phone"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "phone must be 10 digits")
		return
	}
	writeData(w, map[string]any{
		"id":        "mem-" + uuid.NewString()[:8],
		"user_id":   "user-" + uuid.NewString()[:8],
		"full_name": "",
		"phone":     req.Phone,
		"role":      req.Role,
		"active":    false,
	})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "memberID") == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown member")
		return
	}
	writeData(w, map[string]string{"message": "member removed"})
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, map[string]any{
			"id":          role.ID,
			"name":        role.Name,
			"permissions": role.Permissions,
		})
	}
	s.mu.Unlock()
	writeData(w, out)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}

	s.mu.Lock()
	role, ok := s.roles[chi.URLParam(r, "roleID")]
	if ok {
		if req.Name != "" {
			role.Name = req.Name
		}
		if req.Permissions != nil {
			role.Permissions = req.Permissions
		}
		s.roles[role.ID] = role
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown role")
		return
	}
	writeData(w, map[string]any{
		"id":          role.ID,
		"name":        role.Name,
		"permissions": role.Permissions,
	})
}

// requireAuth gates protected routes on a structurally valid, unexpired,
// correctly signed access token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "AUTHENTICATION_FAILED", "missing bearer token")
			return
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return s.opts.Secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "AUTHENTICATION_FAILED", "access token rejected")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeTokens(w http.ResponseWriter) {
	access, refresh := s.issuePair("user-1", s.opts.AccessTTL)
	writeTokenPair(w, access, refresh, s.opts)
}

func (s *Server) mintAccessToken(userID string, ttl time.Duration) string {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	signed, err := tok.SignedString(s.opts.Secret)
	if err != nil {
		// Static key and method: signing cannot fail at runtime.
		panic(err)
	}
	return signed
}

func validPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
