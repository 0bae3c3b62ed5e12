package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataFromUserAgent(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		assertion func(t *testing.T, m Metadata)
	}{
		{
			name:      "empty user agent returns unknowns",
			userAgent: "",
			assertion: func(t *testing.T, m Metadata) {
				assert.Equal(t, "Unknown Device", m.DeviceName)
				assert.Equal(t, "desktop", m.DeviceType)
				assert.Equal(t, "unknown", m.Browser)
			},
		},
		{
			name:      "chrome on mac desktop",
			userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			assertion: func(t *testing.T, m Metadata) {
				assert.Contains(t, m.DeviceName, "Chrome")
				assert.Contains(t, m.DeviceName, "on")
				assert.Equal(t, "desktop", m.DeviceType)
				assert.Equal(t, "chrome", m.Browser)
			},
		},
		{
			name:      "safari on iphone is mobile",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			assertion: func(t *testing.T, m Metadata) {
				assert.Equal(t, "mobile", m.DeviceType)
				assert.Contains(t, m.DeviceName, "iPhone")
			},
		},
		{
			name:      "unparseable agent still yields a formatted name",
			userAgent: "Unknown/1.0",
			assertion: func(t *testing.T, m Metadata) {
				assert.NotEmpty(t, m.DeviceName)
				assert.Contains(t, m.DeviceName, "on")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assertion(t, MetadataFromUserAgent(tt.userAgent))
		})
	}
}
