package otp

import (
	"net/url"
	"strings"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/api"
)

// Post-verification routing. Priority order is fixed: a pending invitation
// always wins, then an explicit return path, then profile completion, then
// workspace entry.

const (
	RouteInvitation      = "/invitation/accept"
	RouteCompleteProfile = "/onboarding/profile"
	RouteSelectWorkspace = "/workspace/select"
)

// DestinationInput is everything the router considers.
type DestinationInput struct {
	InvitationToken  string
	ReturnPath       string
	User             *api.User
	CurrentWorkspace string
}

// ResolveDestination picks the route to land on after a successful
// verification.
func ResolveDestination(in DestinationInput) string {
	if in.InvitationToken != "" {
		return RouteInvitation + "?token=" + url.QueryEscape(in.InvitationToken)
	}
	if path := sanitizeReturnPath(in.ReturnPath); path != "" {
		return path
	}
	if !in.User.ProfileComplete() {
		return RouteCompleteProfile
	}
	if in.CurrentWorkspace != "" {
		return "/workspace/" + in.CurrentWorkspace
	}
	return RouteSelectWorkspace
}

// sanitizeReturnPath accepts only same-origin relative paths. Absolute URLs
// and protocol-relative forms are open-redirect vectors and are dropped.
func sanitizeReturnPath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return ""
	}
	if strings.ContainsAny(path, "\\\r\n") {
		return ""
	}
	return path
}
