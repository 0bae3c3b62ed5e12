package transport

import "strings"

// Auth endpoints are unauthenticated by contract: no bearer header, no 401
// refresh handling, no loading indication for the silent ones.
var authPaths = map[string]struct{}{
	"/auth/v1/init":            {},
	"/auth/v1/verify":          {},
	"/auth/v1/verify/firebase": {},
	"/auth/v1/refresh_token":   {},
	"/auth/v1/logout":          {},
}

// Silent background calls that must not flip the loading indicator.
var skipLoadingPaths = map[string]struct{}{
	"/auth/v1/refresh_token": {},
	"/auth/v1/logout":        {},
}

// Workspace-scoped endpoint categories. An explicit allow-list rather than
// substring matching: auth, user profile, and the workspace listing itself
// never carry the tenant header.
var workspaceScopedPrefixes = []string{
	"/workspace/v1/", // sub-resources of a workspace, not the listing
	"/member/v1",
	"/role/v1",
	"/module/v1",
	"/customer/v1",
	"/order/v1",
	"/invoice/v1",
	"/inventory/v1",
}

func isAuthPath(path string) bool {
	_, ok := authPaths[path]
	return ok
}

func skipsLoading(path string) bool {
	_, ok := skipLoadingPaths[path]
	return ok
}

func isWorkspaceScoped(path string) bool {
	for _, prefix := range workspaceScopedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
