package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DescribeClient extracts a human-readable client description from a
// User-Agent string. Returns format: "Browser Version on OS"
// (e.g., "Chrome 120 on macOS", "Safari on iOS").
func DescribeClient(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Client"
	}

	ua := useragent.New(userAgentString)

	browser, version := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if version != "" {
		parts := strings.Split(version, ".")
		if len(parts) > 0 && parts[0] != "" {
			browser = browser + " " + parts[0]
		}
	}

	if ua.Mobile() {
		platform := ua.Platform()
		if platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + os)
}
