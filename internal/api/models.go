package api

// Request and response shapes for the fixed backend contract. Field names
// mirror the wire format exactly; nothing here is invented client-side.

// InitAuthRequest starts a phone-OTP login.
type InitAuthRequest struct {
	Phone          string `json:"phone"`
	CountryCode    string `json:"country_code"`
	TokenID        string `json:"token_id,omitempty"`
	RecaptchaToken string `json:"recaptcha_token,omitempty"`
	DeviceID       string `json:"device_id"`
	DeviceName     string `json:"device_name"`
	DeviceType     string `json:"device_type"`
	Platform       string `json:"platform"`
	Browser        string `json:"browser"`
	OS             string `json:"os"`
}

// InitAuthResponse carries the server-issued OTP session.
type InitAuthResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// VerifyOTPRequest completes a phone-OTP login.
type VerifyOTPRequest struct {
	SessionID      string `json:"session_id"`
	OTP            string `json:"otp"`
	AuthMode       string `json:"auth_mode"`
	RecaptchaToken string `json:"recaptcha_token,omitempty"`
	DeviceID       string `json:"device_id"`
	DeviceName     string `json:"device_name"`
}

// VerifyFirebaseRequest is the alternate verification path through the
// third-party phone-verification provider.
type VerifyFirebaseRequest struct {
	FirebaseIDToken string `json:"firebase_id_token"`
	CountryCode     string `json:"country_code"`
	Phone           string `json:"phone"`
	DeviceID        string `json:"device_id"`
	DeviceName      string `json:"device_name"`
	DeviceType      string `json:"device_type"`
	Platform        string `json:"platform"`
	Browser         string `json:"browser"`
	OS              string `json:"os"`
}

// TokenResponse is the token pair returned by verify and refresh. Expiries
// are optional RFC 3339 timestamps.
type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	AccessTokenExpiresAt  string `json:"access_token_expires_at,omitempty"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at,omitempty"`
}

// RefreshRequest rotates the token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}

// LogoutRequest invalidates the current session server-side.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	DeviceID     string `json:"device_id,omitempty"`
}

// User is the current profile.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name"`
	Active    bool   `json:"active"`
}

// ProfileComplete reports whether the profile has the fields the app
// requires before entering a workspace.
func (u *User) ProfileComplete() bool {
	return u != nil && u.FirstName != "" && u.Phone != ""
}

// Device is one entry in the session/device management list.
type Device struct {
	ID         string `json:"id"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
	Platform   string `json:"platform"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	LastSeenAt string `json:"last_seen_at,omitempty"`
	Current    bool   `json:"current"`
}

// Workspace is a tenant the user belongs to.
type Workspace struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"`
	Role   string `json:"role,omitempty"`
	Active bool   `json:"active"`
}

// UpdateWorkspaceRequest renames or re-slugs a tenant. Empty fields are left
// unchanged server-side.
type UpdateWorkspaceRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,notblank,max=120"`
	Slug string `json:"slug,omitempty" validate:"omitempty,max=60"`
}

// UpdateRoleRequest changes a role's name or permission set.
type UpdateRoleRequest struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,notblank,max=60"`
	Permissions []string `json:"permissions,omitempty"`
}

// CreateWorkspaceRequest opens a new tenant.
type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
	Slug string `json:"slug,omitempty" validate:"omitempty,max=60"`
}

// Member is a user inside a workspace.
type Member struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// InviteMemberRequest adds a member by phone.
type InviteMemberRequest struct {
	Phone       string `json:"phone" validate:"required,mobile"`
	CountryCode string `json:"country_code" validate:"required"`
	Role        string `json:"role" validate:"required,notblank"`
}

// Role is a named permission set within a workspace.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}
