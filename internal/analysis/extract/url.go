package extract

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"'` + "`" + `]+|\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|cutt\.ly|rb\.gy|ow\.ly|shorturl\.at|tiny\.cc)/[^\s<>"'` + "`" + `]*`)

const urlTrailing = ".,;:!?)]}'\""

func findURLs(text string) []candidate {
	return scan(urlPattern, text, func(start, end int) (string, bool) {
		if start > 0 && (isAlnum(text[start-1]) || text[start-1] == '@') {
			return "", false
		}
		raw := strings.TrimRight(text[start:end], urlTrailing)
		value := normalizeURL(raw)
		if value == "" {
			return "", false
		}
		return value, true
	})
}

// normalizeURL lowercases the scheme and host and leaves path, query and fragment untouched.
func normalizeURL(raw string) string {
	scheme := ""
	rest := raw
	if i := strings.Index(raw, "://"); i >= 0 {
		scheme = strings.ToLower(raw[:i]) + "://"
		rest = raw[i+3:]
	}

	hostEnd := len(rest)
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		hostEnd = i
	}
	host := strings.ToLower(rest[:hostEnd])
	if host == "" || !strings.Contains(host, ".") || strings.HasSuffix(host, ".") {
		return ""
	}
	return scheme + host + rest[hostEnd:]
}
