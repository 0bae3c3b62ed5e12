// Package device produces and persists the pseudo-unique device identifier
// attached to every auth request. The identifier is derived from a stable
// environment fingerprint and replicated across several storage backends so
// it survives any single backend being wiped.
package device

import (
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Environment captures the host characteristics folded into the fingerprint.
// Inputs are chosen for stability across restarts, not for uniqueness
// guarantees; the hash is a correlation aid, not a cryptographic identity.
type Environment struct {
	UserAgent             string
	Language              string
	TimezoneOffsetMinutes int
	Platform              string
	Architecture          string
	DisplayGeometry       string
	Hostname              string
}

// CollectEnvironment gathers the local environment. The user-agent string is
// configuration-supplied because a headless client has no browser to ask.
func CollectEnvironment(userAgent string) Environment {
	hostname, _ := os.Hostname()
	_, offsetSeconds := time.Now().Zone()
	return Environment{
		UserAgent:             userAgent,
		Language:              locale(),
		TimezoneOffsetMinutes: offsetSeconds / 60,
		Platform:              runtime.GOOS,
		Architecture:          runtime.GOARCH,
		Hostname:              hostname,
	}
}

// Fingerprint hashes the environment into a stable hex digest.
func (e Environment) Fingerprint() string {
	data := fmt.Sprintf("%s|%s|%d|%s|%s|%s|%s",
		e.UserAgent, e.Language, e.TimezoneOffsetMinutes,
		e.Platform, e.Architecture, e.DisplayGeometry, e.Hostname)
	sum := blake2b.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func locale() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		if v := os.Getenv(key); v != "" {
			if i := strings.IndexByte(v, '.'); i > 0 {
				return v[:i]
			}
			return v
		}
	}
	return "en_US"
}
