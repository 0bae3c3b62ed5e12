package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	t.Run("flag is true iff counter is nonzero", func(t *testing.T) {
		tr := NewTracker()
		assert.False(t, tr.Loading())

		tr.begin()
		tr.begin()
		assert.True(t, tr.Loading())
		assert.Equal(t, 2, tr.Pending())

		tr.end()
		// One request finishing must not clear the flag while another runs.
		assert.True(t, tr.Loading())

		tr.end()
		assert.False(t, tr.Loading())
	})

	t.Run("subscribers see only edge transitions", func(t *testing.T) {
		tr := NewTracker()
		var got []bool
		cancel := tr.Subscribe(func(loading bool) { got = append(got, loading) })
		defer cancel()

		tr.begin()
		tr.begin()
		tr.end()
		tr.end()

		assert.Equal(t, []bool{true, false}, got)
	})

	t.Run("concurrent begin and end stay balanced", func(t *testing.T) {
		tr := NewTracker()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tr.begin()
				tr.end()
			}()
		}
		wg.Wait()
		assert.Equal(t, 0, tr.Pending())
		assert.False(t, tr.Loading())
	})
}

func TestLoadingIndicator(t *testing.T) {
	okResponse := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return httptest.NewRecorder().Result(), nil
	})

	t.Run("counter is released after each request", func(t *testing.T) {
		tr := NewTracker()
		rt := Chain(okResponse, LoadingIndicator(tr))

		req, err := http.NewRequest(http.MethodGet, "http://backend/user/v1", nil)
		require.NoError(t, err)
		_, err = rt.RoundTrip(req)
		require.NoError(t, err)

		assert.Equal(t, 0, tr.Pending())
	})

	t.Run("counter is released on transport error", func(t *testing.T) {
		tr := NewTracker()
		failing := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})
		rt := Chain(failing, LoadingIndicator(tr))

		req, err := http.NewRequest(http.MethodGet, "http://backend/user/v1", nil)
		require.NoError(t, err)
		_, err = rt.RoundTrip(req)
		require.Error(t, err)

		assert.Equal(t, 0, tr.Pending())
		assert.False(t, tr.Loading())
	})

	t.Run("silent endpoints are skipped", func(t *testing.T) {
		tr := NewTracker()
		var sawPending int
		recorder := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			sawPending = tr.Pending()
			return httptest.NewRecorder().Result(), nil
		})
		rt := Chain(recorder, LoadingIndicator(tr))

		for _, path := range []string{"/auth/v1/refresh_token", "/auth/v1/logout"} {
			req, err := http.NewRequest(http.MethodPost, "http://backend"+path, nil)
			require.NoError(t, err)
			_, err = rt.RoundTrip(req)
			require.NoError(t, err)
			assert.Equal(t, 0, sawPending, "path %s must not be tracked", path)
		}

		// A normal request is tracked while in flight.
		req, err := http.NewRequest(http.MethodGet, "http://backend/user/v1", nil)
		require.NoError(t, err)
		_, err = rt.RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, 1, sawPending)
	})
}
