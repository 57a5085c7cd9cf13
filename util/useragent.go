package util

import "strings"

// Fallback labels used when no known token is found in a user agent.
const (
	UnknownBrowser         = "Nieznana"
	UnknownOperatingSystem = "Nieznany"
	DesktopDevice          = "Desktop"
)

// ClientInfo holds the client tags derived from a raw user agent.
type ClientInfo struct {
	Browser         *string `json:"browser"`
	OperatingSystem *string `json:"operating_system"`
	DeviceType      *string `json:"device_type"`
}

type uaToken struct {
	needle string
	label  string
}

// Order matters: the first matching token wins.
var (
	browserTokens = []uaToken{
		{"chrome", "Chrome"},
		{"firefox", "Firefox"},
		{"safari", "Safari"},
		{"edge", "Edge"},
		{"opera", "Opera"},
		{"ie", "Internet Explorer"},
	}
	osTokens = []uaToken{
		{"windows", "Windows"},
		{"mac os", "macOS"},
		{"linux", "Linux"},
		{"android", "Android"},
		{"ios", "iOS"},
	}
)

// ClassifyUserAgent maps a user agent to browser, operating system and device
// tags using case-insensitive substring matching. An empty user agent yields
// all nil fields.
func ClassifyUserAgent(userAgent string) ClientInfo {
	if userAgent == "" {
		return ClientInfo{}
	}
	ua := strings.ToLower(userAgent)

	browser := matchToken(ua, browserTokens, UnknownBrowser)
	os := matchToken(ua, osTokens, UnknownOperatingSystem)
	device := classifyDevice(ua)

	return ClientInfo{
		Browser:         &browser,
		OperatingSystem: &os,
		DeviceType:      &device,
	}
}

func matchToken(ua string, tokens []uaToken, fallback string) string {
	for _, t := range tokens {
		if strings.Contains(ua, t.needle) {
			return t.label
		}
	}
	return fallback
}

func classifyDevice(ua string) string {
	switch {
	case strings.Contains(ua, "mobile"):
		return "Mobile"
	case strings.Contains(ua, "tablet"):
		return "Tablet"
	case strings.Contains(ua, "android"), strings.Contains(ua, "ios"):
		return "Mobile"
	default:
		return DesktopDevice
	}
}
