package util

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"clientvault/pkg/apierror"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFilename normalizes a user-supplied file or folder name into a
// single safe path segment. Separator and traversal sequences are
// replaced or rejected so the result can never change the directory the
// caller resolved.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apierror.New("INVALID_FILENAME", "name cannot be empty", "", http.StatusBadRequest)
	}

	if strings.Contains(trimmed, "\x00") {
		return "", apierror.New("INVALID_FILENAME", "name contains null bytes", trimmed, http.StatusBadRequest)
	}

	builder := strings.Builder{}
	builder.Grow(len(trimmed))
	for _, char := range trimmed {
		if unicode.IsControl(char) || unicode.Is(unicode.Cf, char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(invalidFilenameChars.ReplaceAllString(builder.String(), "_"))
	if cleaned == "" {
		return "", apierror.New("INVALID_FILENAME", "name is invalid after sanitization", trimmed, http.StatusBadRequest)
	}

	// Truncate by runes, not bytes, to avoid splitting multi-byte characters.
	runes := []rune(cleaned)
	if len(runes) > 255 {
		runes = runes[:255]
	}
	cleaned = string(runes)

	if cleaned == "." || cleaned == ".." {
		return "", apierror.New("INVALID_FILENAME", "name cannot be current or parent directory", cleaned, http.StatusBadRequest)
	}

	stem := cleaned
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		stem = cleaned[:idx]
	}
	if _, exists := windowsReservedNames[strings.ToUpper(stem)]; exists {
		return "", apierror.New("INVALID_FILENAME", "reserved name is not allowed", cleaned, http.StatusBadRequest)
	}

	return cleaned, nil
}

var clientNameAllowed = regexp.MustCompile(`[^A-Za-z0-9 .&'_-]`)
var repeatedSpaces = regexp.MustCompile(`\s+`)

const maxClientNameLength = 80

// SanitizeClientName turns a registration name into a filesystem-safe
// workspace identifier: allow-listed characters only, collapsed
// whitespace, length-capped.
func SanitizeClientName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apierror.New("INVALID_CLIENT_NAME", "client name cannot be empty", "", http.StatusBadRequest)
	}

	cleaned := clientNameAllowed.ReplaceAllString(trimmed, "")
	cleaned = strings.TrimSpace(repeatedSpaces.ReplaceAllString(cleaned, " "))
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "", apierror.New("INVALID_CLIENT_NAME", "client name is invalid after sanitization", trimmed, http.StatusBadRequest)
	}

	runes := []rune(cleaned)
	if len(runes) > maxClientNameLength {
		cleaned = strings.TrimSpace(string(runes[:maxClientNameLength]))
	}

	return cleaned, nil
}
