// File: internal/xhs/sanitize.go
package xhs

import "strings"

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "",
)

// SanitizeFilename makes a user-supplied string (typically an author
// nickname) safe to use as a directory or file name on common filesystems.
func SanitizeFilename(name string) string {
	cleaned := strings.TrimSpace(filenameReplacer.Replace(name))
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "unknown"
	}
	const maxLen = 80
	if len(cleaned) > maxLen {
		// Cut at a rune boundary.
		runes := []rune(cleaned)
		for len(string(runes)) > maxLen {
			runes = runes[:len(runes)-1]
		}
		cleaned = string(runes)
	}
	return cleaned
}
