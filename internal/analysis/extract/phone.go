package extract

import (
	"regexp"
	"strings"
)

var (
	// Indian mobile numbers with an optional +91, 91 or 0 prefix and single separators.
	indianMobilePattern = regexp.MustCompile(`(?:\+?91[\s-]?|0)?[6-9](?:[\s-]?\d){9}`)
	// Any other number written in international form.
	internationalPattern = regexp.MustCompile(`\+[1-9](?:[\s-]?\d){9,12}`)
)

func findPhones(text string) []candidate {
	accept := func(start, end int) (string, bool) {
		if start > 0 && (isDigit(text[start-1]) || text[start-1] == '+') {
			return "", false
		}
		if end < len(text) && isDigit(text[end]) {
			return "", false
		}
		value, ok := normalizePhone(text[start:end])
		return value, ok
	}

	out := scan(indianMobilePattern, text, accept)
	for _, c := range scan(internationalPattern, text, accept) {
		dup := false
		for _, existing := range out {
			if c.start < existing.end && existing.start < c.end {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// normalizePhone strips separators. Indian mobiles collapse to their ten-digit
// national form; other international numbers keep a leading '+'.
func normalizePhone(raw string) (string, bool) {
	digits := digitsOnly(raw)
	switch {
	case len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9':
		return digits, true
	case len(digits) == 12 && strings.HasPrefix(digits, "91") && digits[2] >= '6' && digits[2] <= '9':
		return digits[2:], true
	case len(digits) == 11 && digits[0] == '0' && digits[1] >= '6' && digits[1] <= '9':
		return digits[1:], true
	case strings.HasPrefix(strings.TrimSpace(raw), "+") && len(digits) >= 10 && len(digits) <= 13:
		return "+" + digits, true
	}
	return "", false
}
