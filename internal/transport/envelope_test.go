package transport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonResponse(status int, body string) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		rec.Header().Set("Content-Type", "application/json")
		rec.WriteHeader(status)
		rec.WriteString(body)
		return rec.Result(), nil
	})
}

func doGet(t *testing.T, rt http.RoundTripper) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://backend/user/v1", nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestEnvelopeUnwrap(t *testing.T) {
	t.Run("success envelope body becomes the data field", func(t *testing.T) {
		rt := Chain(jsonResponse(200, `{"success":true,"data":{"id":"u1","full_name":"Asha"}}`), EnvelopeUnwrap(discardLogger()))

		resp, body := doGet(t, rt)
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"id":"u1","full_name":"Asha"}`, body)
	})

	t.Run("failure envelope on 200 synthesizes mapped status", func(t *testing.T) {
		tests := []struct {
			code       string
			wantStatus int
		}{
			{"VALIDATION_ERROR", 400},
			{"AUTHENTICATION_FAILED", 401},
			{"ACCESS_DENIED", 403},
			{"NOT_FOUND", 404},
			{"RATE_LIMIT_EXCEEDED", 429},
			{"SOMETHING_ELSE", 422},
		}
		for _, tt := range tests {
			t.Run(tt.code, func(t *testing.T) {
				rt := Chain(jsonResponse(200, `{"success":false,"error":{"code":"`+tt.code+`","message":"nope"}}`), EnvelopeUnwrap(discardLogger()))

				resp, body := doGet(t, rt)
				assert.Equal(t, tt.wantStatus, resp.StatusCode)

				envErr := ParseEnvelopeError([]byte(body))
				require.NotNil(t, envErr)
				assert.Equal(t, tt.code, envErr.Code)
				assert.Equal(t, "nope", envErr.Message)
			})
		}
	})

	t.Run("failure envelope on error status keeps the status", func(t *testing.T) {
		rt := Chain(jsonResponse(401, `{"success":false,"error":{"code":"INVALID_OTP","message":"wrong code"}}`), EnvelopeUnwrap(discardLogger()))

		resp, body := doGet(t, rt)
		assert.Equal(t, 401, resp.StatusCode)
		envErr := ParseEnvelopeError([]byte(body))
		require.NotNil(t, envErr)
		assert.Equal(t, "INVALID_OTP", envErr.Code)
	})

	t.Run("non-envelope JSON passes through untouched", func(t *testing.T) {
		rt := Chain(jsonResponse(200, `{"id":"u1"}`), EnvelopeUnwrap(discardLogger()))

		resp, body := doGet(t, rt)
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"id":"u1"}`, body)
	})

	t.Run("non-JSON passes through untouched", func(t *testing.T) {
		base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			rec := httptest.NewRecorder()
			rec.Header().Set("Content-Type", "text/plain")
			rec.WriteString("pong")
			return rec.Result(), nil
		})
		rt := Chain(base, EnvelopeUnwrap(discardLogger()))

		resp, body := doGet(t, rt)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "pong", body)
	})

	t.Run("envelope with null data yields null body", func(t *testing.T) {
		rt := Chain(jsonResponse(200, `{"success":true}`), EnvelopeUnwrap(discardLogger()))

		_, body := doGet(t, rt)
		assert.Equal(t, "null", body)
	})
}
