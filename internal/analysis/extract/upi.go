package extract

import (
	"regexp"
	"strings"
)

var upiPattern = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9._-]{1,255}@[a-zA-Z][a-zA-Z0-9]{1,63}`)

// knownUPIHandles are payment service provider handles issued by NPCI members.
var knownUPIHandles = map[string]bool{
	"ybl": true, "ibl": true, "axl": true, "upi": true, "apl": true, "paytm": true,
	"okaxis": true, "okhdfcbank": true, "okicici": true, "oksbi": true, "ptyes": true,
	"ptaxis": true, "pthdfc": true, "ptsbi": true, "sbi": true, "icici": true, "hdfcbank": true,
	"axisbank": true, "kotak": true, "barodampay": true, "aubank": true, "yesbank": true,
	"idfcbank": true, "idfcfirst": true, "freecharge": true, "jio": true, "airtel": true,
	"waicici": true, "wahdfcbank": true, "waaxis": true, "wasbi": true, "indus": true,
	"federal": true, "rbl": true, "pnb": true, "boi": true, "cnrb": true, "unionbank": true,
	"mahb": true, "kbl": true, "citi": true, "hsbc": true, "dbs": true, "abfspay": true,
	"slice": true, "jupiteraxis": true, "fam": true, "postbank": true,
}

var upiHandleSuffixes = []string{"bank", "pay", "upi"}

func isUPIHandle(handle string) bool {
	if knownUPIHandles[handle] {
		return true
	}
	for _, suffix := range upiHandleSuffixes {
		if strings.HasSuffix(handle, suffix) {
			return true
		}
	}
	return false
}

func findUPI(text string) []candidate {
	return scan(upiPattern, text, func(start, end int) (string, bool) {
		if start > 0 {
			prev := text[start-1]
			if isAlnum(prev) || prev == '.' || prev == '_' || prev == '-' || prev == '/' {
				return "", false
			}
		}
		// local@domain.tld is an email address, not a VPA.
		if end+1 < len(text) && text[end] == '.' && isAlnum(text[end+1]) {
			return "", false
		}
		value := strings.ToLower(text[start:end])
		at := strings.LastIndexByte(value, '@')
		local := strings.TrimRight(value[:at], "._-")
		if local == "" || !isUPIHandle(value[at+1:]) {
			return "", false
		}
		return local + value[at:], true
	})
}
