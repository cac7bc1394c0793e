package textutil

import (
	"strings"
	"unicode"
)

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a capture or snapshot file name portable: path
// separators, colons and asterisks become dashes and the other characters
// Windows rejects are dropped.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// NormalizeUsername trims and lower-cases a streamer username and reports
// whether it is usable as a single path component.
func NormalizeUsername(value string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" || name == "." || name == "*" || strings.Contains(name, "..") {
		return "", false
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == '@' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", false
		}
	}
	return name, true
}
