// Package logutil keeps secrets and large payloads out of log lines.
package logutil

import "strings"

// TruncateForLog cuts s to maxLen bytes and marks the cut with "...".
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// MaskLicenseKey keeps the first two segments and the last segment of a
// dash-separated key and stars out the rest, e.g. LG-ABC-***-***-XYZ.
func MaskLicenseKey(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) < 3 {
		return TruncateForLog(key, 4)
	}
	masked := make([]string, len(parts))
	for i, p := range parts {
		switch i {
		case 0, 1, len(parts) - 1:
			masked[i] = p
		default:
			masked[i] = strings.Repeat("*", len(p))
		}
	}
	return strings.Join(masked, "-")
}
