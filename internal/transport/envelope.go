package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
)

// maxEnvelopeBody bounds how much of a response the unwrapper will buffer.
// Larger bodies pass through untouched.
const maxEnvelopeBody = 4 << 20

// envelope is the backend's uniform {success, data, error} response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *EnvelopeError  `json:"error"`
}

// EnvelopeError is the error payload the backend places inside an envelope.
type EnvelopeError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// EnvelopeUnwrap normalizes enveloped responses so downstream callers see
// plain data bodies and real HTTP statuses:
//   - success=true: the body becomes the data field.
//   - success=false on a 2xx: the status is rewritten from the envelope error
//     code, so an enveloped AUTHENTICATION_FAILED is indistinguishable from a
//     transport-level 401.
//   - success=false on an error status: the status is kept, the body becomes
//     the bare error object.
//
// Non-JSON and non-enveloped bodies pass through untouched.
func EnvelopeUnwrap(log *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp == nil || resp.Body == nil {
				return resp, err
			}
			if !isJSONResponse(resp) {
				return resp, nil
			}

			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBody+1))
			resp.Body.Close()
			if readErr != nil || len(raw) > maxEnvelopeBody {
				// Can't inspect it; hand back what we have.
				resp.Body = io.NopCloser(bytes.NewReader(raw))
				return resp, nil
			}

			var env envelope
			if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
				resp.Body = io.NopCloser(bytes.NewReader(raw))
				return resp, nil
			}

			if *env.Success {
				data := env.Data
				if data == nil {
					data = json.RawMessage(`null`)
				}
				replaceBody(resp, data)
				return resp, nil
			}

			envErr := env.Error
			if envErr == nil {
				envErr = &EnvelopeError{Code: "UNKNOWN", Message: "request failed"}
			}
			if resp.StatusCode < 400 {
				resp.StatusCode = apierrors.StatusForEnvelopeCode(envErr.Code)
				resp.Status = strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
				log.Debug("envelope failure normalized",
					"path", req.URL.Path,
					"code", envErr.Code,
					"status", resp.StatusCode,
				)
			}
			body, _ := json.Marshal(map[string]*EnvelopeError{"error": envErr})
			replaceBody(resp, body)
			return resp, nil
		})
	}
}

// ParseEnvelopeError extracts the error payload the unwrapper left in a
// normalized failure body. Returns nil when the body has another shape.
func ParseEnvelopeError(body []byte) *EnvelopeError {
	var wrapper struct {
		Error *EnvelopeError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil
	}
	return wrapper.Error
}

func isJSONResponse(resp *http.Response) bool {
	ct := resp.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/json")
}

func replaceBody(resp *http.Response, body []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
}
