package stubserver

import (
	"encoding/json"
	"net/http"
	"time"
)

// writeData wraps a successful payload in the backend envelope.
func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

// writeError wraps a failure in the backend envelope with the real HTTP
// status, matching production behavior.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func writeTokenPair(w http.ResponseWriter, access, refresh string, opts Options) {
	now := time.Now()
	writeData(w, map[string]string{
		"access_token":             access,
		"refresh_token":            refresh,
		"access_token_expires_at":  now.Add(opts.AccessTTL).UTC().Format(time.RFC3339),
		"refresh_token_expires_at": now.Add(opts.RefreshTTL).UTC().Format(time.RFC3339),
	})
}
