package api

import (
	"context"
	"net/http"
)

// Auth endpoints. These bypass the bearer middleware by path; the refresh
// token travels in the body, never in a header.

func (c *Client) InitAuth(ctx context.Context, req InitAuthRequest) (*InitAuthResponse, error) {
	var out InitAuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/init", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*TokenResponse, error) {
	req.AuthMode = "OTP"
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyFirebase(ctx context.Context, req VerifyFirebaseRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify/firebase", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken, deviceID string) (*TokenResponse, error) {
	var out TokenResponse
	req := RefreshRequest{RefreshToken: refreshToken, DeviceID: deviceID}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/refresh_token", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken, deviceID string) error {
	req := LogoutRequest{RefreshToken: refreshToken, DeviceID: deviceID}
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", req, nil)
}

// LogoutAll revokes every session of the current user. Unlike plain logout
// this is an authenticated call.
func (c *Client) LogoutAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout/all", struct{}{}, nil)
}

func (c *Client) LogoutDevice(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/devices/"+deviceID+"/logout", struct{}{}, nil)
}

func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var out []Device
	if err := c.do(ctx, http.MethodGet, "/auth/v1/devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CurrentUser fetches the profile of the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/user/v1", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
