package extract

import (
	"regexp"
	"strings"
)

var (
	bankNumberPattern  = regexp.MustCompile(`\d{4}(?:[ -]\d{4}){1,3}(?:[ -]\d{1,4})?|\d{8,18}`)
	bankKeywordPattern = regexp.MustCompile(`(?i)\ba/c\b|\bacc(?:t|ount|ounts)?\b|\bbank\b|\bifsc\b|\bbeneficiary\b|\bsavings?\b|\bcurrent account\b`)
)

const (
	keywordLookBehind = 48
	keywordLookAhead  = 24
)

func findBankAccounts(text string) []candidate {
	return scan(bankNumberPattern, text, func(start, end int) (string, bool) {
		if start > 0 && (isDigit(text[start-1]) || text[start-1] == '+') {
			return "", false
		}
		if end < len(text) && isDigit(text[end]) {
			return "", false
		}
		digits := digitsOnly(text[start:end])
		if len(digits) < 8 || len(digits) > 18 {
			return "", false
		}
		if !nearBankKeyword(text, start, end) {
			return "", false
		}
		return digits, true
	})
}

func nearBankKeyword(text string, start, end int) bool {
	from := start - keywordLookBehind
	if from < 0 {
		from = 0
	}
	to := end + keywordLookAhead
	if to > len(text) {
		to = len(text)
	}
	window := strings.ToLower(text[from:start]) + " " + strings.ToLower(text[end:to])
	return bankKeywordPattern.MatchString(window)
}
