package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticScope string

func (s staticScope) Current() string { return string(s) }

func headerRecorder(saw *string) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		*saw = req.Header.Get(WorkspaceHeaderName)
		return httptest.NewRecorder().Result(), nil
	})
}

func TestWorkspaceScoping(t *testing.T) {
	tests := []struct {
		name       string
		scope      string
		path       string
		wantHeader string
	}{
		{"workspace sub-resource gets header", "ws-7", "/workspace/v1/ws-7/settings", "ws-7"},
		{"member endpoint gets header", "ws-7", "/member/v1", "ws-7"},
		{"module catalog gets header", "ws-7", "/module/v1/catalog", "ws-7"},
		{"order endpoint gets header", "ws-7", "/order/v1/list", "ws-7"},
		{"auth endpoint excluded", "ws-7", "/auth/v1/init", ""},
		{"user profile excluded", "ws-7", "/user/v1", ""},
		{"workspace listing excluded", "ws-7", "/workspace/v1", ""},
		{"no selection means no header", "", "/member/v1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saw string
			rt := Chain(headerRecorder(&saw), WorkspaceScoping(staticScope(tt.scope)))

			req, err := http.NewRequest(http.MethodGet, "http://backend"+tt.path, nil)
			require.NoError(t, err)
			_, err = rt.RoundTrip(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantHeader, saw)
		})
	}
}

func TestChainOrdering(t *testing.T) {
	// Chain(base, a, b) must run a outside b.
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return httptest.NewRecorder().Result(), nil
	})

	rt := Chain(base, mark("outer"), mark("inner"))
	req, err := http.NewRequest(http.MethodGet, "http://backend/user/v1", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"outer", "inner", "base"}, order)
}
