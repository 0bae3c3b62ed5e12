package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
)

// TokenSource supplies bearer credentials and refresh coordination. The
// session manager implements it; Refresh must be single-flight internally so
// every concurrent 401 shares one network refresh and one outcome.
type TokenSource interface {
	AccessToken(ctx context.Context) string
	HasRefreshToken(ctx context.Context) bool
	Refresh(ctx context.Context) error
	InvalidateSession(ctx context.Context, reason string)
}

// BearerAuth injects the access token and transparently recovers from a 401
// by refreshing and retrying the request exactly once. Auth endpoints bypass
// the middleware entirely: they are unauthenticated by contract.
func BearerAuth(src TokenSource, log *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if isAuthPath(req.URL.Path) {
				return next.RoundTrip(req)
			}

			ctx := req.Context()
			attempt := cloneRequest(req)
			if tok := src.AccessToken(ctx); tok != "" {
				attempt.Header.Set("Authorization", "Bearer "+tok)
			}

			resp, err := next.RoundTrip(attempt)
			if err != nil {
				requestsTotal.WithLabelValues("network_error").Inc()
				return nil, err
			}
			if resp.StatusCode != http.StatusUnauthorized {
				requestsTotal.WithLabelValues(outcome(resp.StatusCode)).Inc()
				return resp, nil
			}

			refreshTriggersTotal.Inc()

			if !src.HasRefreshToken(ctx) {
				// Nothing to refresh with: terminal, straight to logout. The
				// error matches the failed-refresh path so every request
				// racing the same expiry event observes one outcome,
				// regardless of whether it owned the flight or arrived after
				// the flight already cleared the tokens.
				log.Warn("401 with no refresh token, invalidating session", "path", req.URL.Path)
				src.InvalidateSession(ctx, "missing_refresh_token")
				requestsTotal.WithLabelValues("auth_terminal").Inc()
				drain(resp)
				return nil, apierrors.New(apierrors.CodeAuthenticationFailed,
					fmt.Sprintf("session expired for %s", req.URL.Path))
			}

			if req.Body != nil && req.GetBody == nil {
				// The body was consumed by the first attempt and cannot be
				// replayed; surface the 401 rather than retry half a request.
				log.Warn("401 on non-replayable request, not retrying", "path", req.URL.Path)
				requestsTotal.WithLabelValues("auth_terminal").Inc()
				return resp, nil
			}

			drain(resp)
			if err := src.Refresh(ctx); err != nil {
				// Refresh already resolved the session to logged-out; every
				// request waiting on this flight fails identically.
				requestsTotal.WithLabelValues("auth_terminal").Inc()
				return nil, apierrors.Wrap(err, apierrors.CodeAuthenticationFailed,
					fmt.Sprintf("token refresh failed for %s", req.URL.Path))
			}

			retry := cloneRequest(req)
			if tok := src.AccessToken(ctx); tok != "" {
				retry.Header.Set("Authorization", "Bearer "+tok)
			}
			authRetriesTotal.Inc()
			log.Debug("retrying request after token refresh", "path", req.URL.Path)

			resp, err = next.RoundTrip(retry)
			if err != nil {
				requestsTotal.WithLabelValues("network_error").Inc()
				return nil, err
			}
			requestsTotal.WithLabelValues(outcome(resp.StatusCode)).Inc()
			return resp, nil
		})
	}
}

// cloneRequest produces a fresh request with a replayable body, leaving the
// original untouched for a potential retry.
func cloneRequest(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err == nil {
			out.Body = body
		}
	}
	return out
}

func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxEnvelopeBody))
		resp.Body.Close()
	}
}

func outcome(status int) string {
	switch {
	case status < 400:
		return "success"
	case status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}
