package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Metadata is the device description sent alongside auth requests.
type Metadata struct {
	DeviceName string
	DeviceType string
	Platform   string
	Browser    string
	OS         string
}

// MetadataFromUserAgent derives request metadata from a user-agent string.
// Unknown fields degrade to "unknown" rather than failing: the backend treats
// all of this as display/telemetry data.
func MetadataFromUserAgent(uaString string) Metadata {
	if uaString == "" {
		return Metadata{
			DeviceName: "Unknown Device",
			DeviceType: "desktop",
			Platform:   "unknown",
			Browser:    "unknown",
			OS:         "unknown",
		}
	}

	ua := useragent.New(uaString)
	browser, _ := ua.Browser()
	osName := ua.OS()

	deviceType := "desktop"
	if ua.Mobile() {
		deviceType = "mobile"
	}

	platform := ua.Platform()
	if platform == "" {
		platform = deviceType
	}

	return Metadata{
		DeviceName: displayName(ua, browser, osName),
		DeviceType: deviceType,
		Platform:   platform,
		Browser:    orUnknown(browser),
		OS:         orUnknown(osName),
	}
}

// displayName renders "Browser on OS" (e.g. "Chrome on macOS"), preferring
// the hardware platform for mobile agents.
func displayName(ua *useragent.UserAgent, browser, osName string) string {
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if osName == "" {
		osName = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + osName)
}

func orUnknown(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
