// Package api is the typed client for the ampairs backend REST contract. The
// contract is fixed; this package only shapes requests, decodes unwrapped
// responses, and normalizes failures into pkg/apierrors codes so callers
// never branch on raw HTTP statuses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/transport"
	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
)

// Client issues requests through the middleware chain configured by the
// caller. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// New builds a client for baseURL using the given transport chain. timeout
// bounds each whole request including the transparent refresh-and-retry; zero
// means no bound.
func New(baseURL string, rt http.RoundTripper, timeout time.Duration, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	return &Client{
		base: base,
		http: &http.Client{Transport: rt, Timeout: timeout},
		log:  log,
	}, nil
}

// do runs one JSON request/response cycle. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apierrors.Wrap(err, apierrors.CodeInternal, "encode request body")
		}
		// bytes.Reader gives http.NewRequest a GetBody, which the auth
		// middleware needs to replay the request after a refresh.
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return apierrors.Wrap(err, apierrors.CodeInternal, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apierrors.Wrap(err, apierrors.CodeNetwork, fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierrors.Wrap(err, apierrors.CodeNetwork, "read response body")
	}

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(method, path, resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierrors.Wrap(err, apierrors.CodeServer, fmt.Sprintf("decode %s %s response", method, path))
	}
	return nil
}

func (c *Client) errorFromResponse(method, path string, status int, body []byte) error {
	serverCode, message := "", ""
	if envErr := transport.ParseEnvelopeError(body); envErr != nil {
		serverCode, message = envErr.Code, envErr.Message
	}
	c.log.Debug("request failed",
		"method", method,
		"path", path,
		"status", status,
		"code", serverCode,
	)
	return apierrors.FromResponse(status, serverCode, message)
}
