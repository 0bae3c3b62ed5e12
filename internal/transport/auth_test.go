package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"

	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
)

// fakeTokenSource mimics the session manager: single-flight refresh that
// rotates the access token, with configurable failure.
type fakeTokenSource struct {
	mu            sync.Mutex
	group         singleflight.Group
	access        string
	refresh       string
	refreshCalls  atomic.Int32
	refreshFails  bool
	invalidations atomic.Int32
}

func (f *fakeTokenSource) AccessToken(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeTokenSource) HasRefreshToken(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh != ""
}

func (f *fakeTokenSource) Refresh(ctx context.Context) error {
	_, err, _ := f.group.Do("refresh", func() (any, error) {
		f.refreshCalls.Add(1)
		if f.refreshFails {
			f.InvalidateSession(ctx, "refresh_failed")
			return nil, apierrors.New(apierrors.CodeAuthenticationFailed, "refresh rejected")
		}
		f.mu.Lock()
		f.access = "fresh-token"
		f.mu.Unlock()
		return nil, nil
	})
	return err
}

func (f *fakeTokenSource) InvalidateSession(_ context.Context, _ string) {
	f.invalidations.Add(1)
	f.mu.Lock()
	f.access, f.refresh = "", ""
	f.mu.Unlock()
}

// tokenGate returns 401 unless the request carries the given bearer token.
func tokenGate(accepted string, hits *atomic.Int32) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if hits != nil {
			hits.Add(1)
		}
		rec := httptest.NewRecorder()
		if req.Header.Get("Authorization") != "Bearer "+accepted {
			rec.WriteHeader(http.StatusUnauthorized)
		} else {
			rec.WriteString("ok")
		}
		return rec.Result(), nil
	})
}

func newRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, "http://backend"+path, bytes.NewReader(body))
	} else {
		req, err = http.NewRequest(method, "http://backend"+path, nil)
	}
	require.NoError(t, err)
	return req
}

func TestBearerAuth(t *testing.T) {
	t.Run("attaches bearer token to protected requests", func(t *testing.T) {
		src := &fakeTokenSource{access: "tok-1", refresh: "ref-1"}
		var sawAuth string
		base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			sawAuth = req.Header.Get("Authorization")
			return httptest.NewRecorder().Result(), nil
		})
		rt := Chain(base, BearerAuth(src, discardLogger()))

		_, err := rt.RoundTrip(newRequest(t, http.MethodGet, "/user/v1", nil))
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok-1", sawAuth)
	})

	t.Run("auth endpoints bypass bearer and refresh entirely", func(t *testing.T) {
		src := &fakeTokenSource{access: "tok-1", refresh: "ref-1"}
		var sawAuth string
		base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			sawAuth = req.Header.Get("Authorization")
			rec := httptest.NewRecorder()
			rec.WriteHeader(http.StatusUnauthorized)
			return rec.Result(), nil
		})
		rt := Chain(base, BearerAuth(src, discardLogger()))

		resp, err := rt.RoundTrip(newRequest(t, http.MethodPost, "/auth/v1/verify", []byte(`{}`)))
		require.NoError(t, err)
		assert.Empty(t, sawAuth)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, int32(0), src.refreshCalls.Load())
	})

	t.Run("401 triggers refresh and exactly one retry", func(t *testing.T) {
		src := &fakeTokenSource{access: "stale-token", refresh: "ref-1"}
		var hits atomic.Int32
		rt := Chain(tokenGate("fresh-token", &hits), BearerAuth(src, discardLogger()))

		resp, err := rt.RoundTrip(newRequest(t, http.MethodPost, "/order/v1/list", []byte(`{"page":1}`)))
		require.NoError(t, err)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", string(body))
		assert.Equal(t, int32(1), src.refreshCalls.Load())
		assert.Equal(t, int32(2), hits.Load(), "original attempt plus one retry")
	})

	t.Run("refresh failure surfaces terminal auth error", func(t *testing.T) {
		src := &fakeTokenSource{access: "stale-token", refresh: "ref-1", refreshFails: true}
		rt := Chain(tokenGate("fresh-token", nil), BearerAuth(src, discardLogger()))

		_, err := rt.RoundTrip(newRequest(t, http.MethodGet, "/user/v1", nil))
		require.Error(t, err)
		assert.True(t, apierrors.HasCode(err, apierrors.CodeAuthenticationFailed))
		assert.Equal(t, int32(1), src.invalidations.Load())
	})

	t.Run("401 without refresh token invalidates session without refreshing", func(t *testing.T) {
		src := &fakeTokenSource{access: "stale-token"}
		rt := Chain(tokenGate("fresh-token", nil), BearerAuth(src, discardLogger()))

		_, err := rt.RoundTrip(newRequest(t, http.MethodGet, "/user/v1", nil))
		require.Error(t, err)
		assert.True(t, apierrors.HasCode(err, apierrors.CodeAuthenticationFailed),
			"missing refresh token is the same terminal outcome as a failed refresh")
		assert.Equal(t, int32(0), src.refreshCalls.Load())
		assert.Equal(t, int32(1), src.invalidations.Load())
	})

	t.Run("concurrent 401s share one refresh", func(t *testing.T) {
		// P1: N requests racing on an expired token issue exactly one
		// refresh, and every request lands with the fresh token.
		src := &fakeTokenSource{access: "stale-token", refresh: "ref-1"}
		rt := Chain(tokenGate("fresh-token", nil), BearerAuth(src, discardLogger()))

		const n = 16
		var wg sync.WaitGroup
		var successes atomic.Int32
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := rt.RoundTrip(newRequest(t, http.MethodGet, "/user/v1", nil))
				if err == nil && resp.StatusCode == http.StatusOK {
					successes.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(n), successes.Load())
		assert.Equal(t, int32(1), src.refreshCalls.Load())
	})

	t.Run("concurrent 401s share one failed refresh outcome", func(t *testing.T) {
		// Requests that join the failed flight and requests that hit the 401
		// only after the flight cleared the tokens must be indistinguishable
		// to the caller.
		src := &fakeTokenSource{access: "stale-token", refresh: "ref-1", refreshFails: true}
		rt := Chain(tokenGate("fresh-token", nil), BearerAuth(src, discardLogger()))

		const n = 8
		var wg sync.WaitGroup
		var terminal atomic.Int32
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := rt.RoundTrip(newRequest(t, http.MethodGet, "/user/v1", nil))
				if apierrors.HasCode(err, apierrors.CodeAuthenticationFailed) {
					terminal.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(n), terminal.Load(), "all waiters fail identically")
		assert.Equal(t, int32(1), src.refreshCalls.Load())
	})

	t.Run("401 after tokens already cleared matches the failed-refresh error", func(t *testing.T) {
		src := &fakeTokenSource{access: "stale-token", refresh: "ref-1", refreshFails: true}
		rt := Chain(tokenGate("fresh-token", nil), BearerAuth(src, discardLogger()))

		_, first := rt.RoundTrip(newRequest(t, http.MethodGet, "/user/v1", nil))
		require.Error(t, first)

		// Tokens are gone now; a straggler takes the no-refresh-token branch
		// and must still see the terminal auth code.
		_, second := rt.RoundTrip(newRequest(t, http.MethodGet, "/user/v1", nil))
		require.Error(t, second)
		assert.True(t, apierrors.HasCode(first, apierrors.CodeAuthenticationFailed))
		assert.True(t, apierrors.HasCode(second, apierrors.CodeAuthenticationFailed))
		assert.Equal(t, int32(1), src.refreshCalls.Load())
	})

	t.Run("request body is replayed on retry", func(t *testing.T) {
		src := &fakeTokenSource{access: "stale-token", refresh: "ref-1"}
		var bodies []string
		base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(req.Body)
			bodies = append(bodies, string(raw))
			rec := httptest.NewRecorder()
			if req.Header.Get("Authorization") != "Bearer fresh-token" {
				rec.WriteHeader(http.StatusUnauthorized)
			}
			return rec.Result(), nil
		})
		rt := Chain(base, BearerAuth(src, discardLogger()))

		_, err := rt.RoundTrip(newRequest(t, http.MethodPost, "/invoice/v1/create", []byte(`{"total":99}`)))
		require.NoError(t, err)
		require.Len(t, bodies, 2)
		assert.Equal(t, `{"total":99}`, bodies[0])
		assert.Equal(t, `{"total":99}`, bodies[1], "retry must carry the full body")
	})
}
