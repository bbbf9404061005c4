package types

import (
	"strings"
)

// AppUnknown is the sentinel value used when the foreground application
// cannot be determined. Events carrying it are excluded from app-switch
// detection and usage aggregation.
const AppUnknown = "Unknown"

// executable names mapped to friendly application names
var appNameMap = map[string]string{
	"chrome.exe":   "Chrome",
	"firefox.exe":  "Firefox",
	"msedge.exe":   "Edge",
	"code.exe":     "VSCode",
	"explorer.exe": "Explorer",
	"chrome":       "Chrome",
	"firefox":      "Firefox",
	"msedge":       "Edge",
	"code":         "VSCode",
}

// NormalizeAppName converts a process executable path into a friendly
// application name. Unrecognized executables keep their base name.
// Both slash styles are handled so Windows paths normalize on any host.
func NormalizeAppName(exePath string) string {
	if exePath == "" {
		return AppUnknown
	}
	base := exePath
	if i := strings.LastIndexAny(exePath, `/\`); i >= 0 {
		base = exePath[i+1:]
	}
	if base == "" {
		return AppUnknown
	}
	if name, ok := appNameMap[strings.ToLower(base)]; ok {
		return name
	}
	return base
}

var browserApps = []string{"chrome", "firefox", "edge", "msedge", "safari", "brave"}

// IsBrowser reports whether the application is a recognized web browser.
// Browser captures get a fixed top crop to exclude tab and address bars.
func IsBrowser(appName string) bool {
	lower := strings.ToLower(appName)
	for _, b := range browserApps {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}
