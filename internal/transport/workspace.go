package transport

import "net/http"

// WorkspaceHeader is the tenant-scoping header attached to workspace-bound
// requests.
const WorkspaceHeaderName = "X-Workspace-Id"

// WorkspaceScope exposes the currently selected workspace, if any.
type WorkspaceScope interface {
	Current() string
}

// WorkspaceScoping attaches the workspace header to requests in the
// workspace-scoped endpoint categories, only while a workspace is selected.
func WorkspaceScoping(scope WorkspaceScope) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if !isWorkspaceScoped(req.URL.Path) {
				return next.RoundTrip(req)
			}
			current := scope.Current()
			if current == "" {
				return next.RoundTrip(req)
			}
			scoped := req.Clone(req.Context())
			scoped.Header.Set(WorkspaceHeaderName, current)
			return next.RoundTrip(scoped)
		})
	}
}
