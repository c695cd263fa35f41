// Package scam scores inbound text for scam likelihood from keyword and pattern signals.
package scam

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultThreshold is the score at or above which a message is treated as a scam.
const DefaultThreshold = 0.3

// Family names a group of related signals.
type Family string

const (
	Urgency        Family = "urgency"
	Threat         Family = "threat"
	CredentialAsk  Family = "credential_request"
	PrizeBait      Family = "prize_bait"
	Impersonation  Family = "impersonation"
	SuspiciousLink Family = "suspicious_link"
)

// Assessment is the full result of classifying one piece of text.
type Assessment struct {
	Score    float64  `json:"score"`
	Scam     bool     `json:"scamDetected"`
	Families []Family `json:"families,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Notes    []string `json:"notes,omitempty"`
}

// family is one signal group. weight applies when pattern matches; boosted
// replaces it when the qualifier also matches.
type family struct {
	name      Family
	weight    float64
	boosted   float64
	pattern   *regexp.Regexp
	qualifier *regexp.Regexp
	note      string
}

var (
	linkPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"']+|\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|cutt\.ly|rb\.gy|ow\.ly|shorturl\.at|tiny\.cc)/[^\s<>"']*`)

	shortenerHosts = map[string]bool{
		"bit.ly": true, "tinyurl.com": true, "goo.gl": true, "t.co": true, "is.gd": true,
		"cutt.ly": true, "rb.gy": true, "ow.ly": true, "shorturl.at": true, "tiny.cc": true,
	}

	trustedHosts = []string{
		"sbi.co.in", "onlinesbi.sbi", "hdfcbank.com", "icicibank.com", "axisbank.com",
		"rbi.org.in", "npci.org.in", "incometax.gov.in", "india.gov.in",
	}
)

func keywordPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func defaultFamilies() []family {
	return []family{
		{
			name:   Urgency,
			weight: 0.15,
			pattern: keywordPattern(
				"urgent", "urgently", "immediately", "right now", "right away", "act now", "hurry",
				"asap", "today only", "within 24 hours", "within 2 hours", "last chance", "expire",
				"expires", "expired", "expiring", "deadline", "limited time", "quickly", "final notice",
			),
			note: "Scammer is creating urgency to rush the victim",
		},
		{
			name:   Threat,
			weight: 0.20,
			pattern: keywordPattern(
				"blocked", "block your", "suspended", "suspend", "frozen", "freeze", "deactivated",
				"deactivate", "legal action", "arrest", "arrested", "penalty", "terminated", "lawsuit",
				"warrant", "court case", "disconnected", "seized", "locked",
			),
			note: "Scammer threatens account suspension or legal consequences",
		},
		{
			name:    CredentialAsk,
			weight:  0.15,
			boosted: 0.25,
			pattern: keywordPattern(
				"otp", "one time password", "pin", "upi pin", "cvv", "password", "card number",
				"account number", "kyc", "aadhaar", "aadhar", "pan card", "pan number", "net banking",
				"login", "credentials", "expiry date", "mpin",
			),
			qualifier: keywordPattern(
				"share", "send", "give", "provide", "tell", "verify", "confirm", "update", "enter",
				"submit", "click", "type", "forward",
			),
			note: "Scammer requests credentials such as OTP, PIN or card details",
		},
		{
			name:    PrizeBait,
			weight:  0.25,
			boosted: 0.40,
			pattern: keywordPattern(
				"prize", "lottery", "you won", "you have won", "winner", "reward", "cashback",
				"refund", "jackpot", "gift", "lucky draw", "claim", "bonus", "selected", "free",
				"congratulations",
			),
			qualifier: keywordPattern(
				"pay", "fee", "fees", "charge", "charges", "deposit", "transfer", "processing",
				"tax", "registration", "advance",
			),
			note: "Scammer baits with prizes, refunds or rewards",
		},
		{
			name:   Impersonation,
			weight: 0.15,
			pattern: keywordPattern(
				"bank manager", "rbi", "reserve bank", "customer care", "customer support",
				"support team", "income tax", "government", "police officer", "cyber cell", "cbi",
				"officer", "sbi", "hdfc", "icici", "paytm", "amazon", "microsoft", "official",
				"department", "telecom", "trai", "courier", "fedex", "customs",
			),
			note: "Scammer impersonates a bank, company or authority",
		},
	}
}

// Classifier scores text against a fixed, ordered set of signal families.
type Classifier struct {
	threshold float64
	families  []family
}

// New returns a classifier using threshold, or DefaultThreshold when it is out of (0,1].
func New(threshold float64) *Classifier {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Classifier{threshold: threshold, families: defaultFamilies()}
}

// Threshold returns the configured scam threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Score returns the scam likelihood of text in [0,1].
func (c *Classifier) Score(text string) float64 {
	return c.Analyze(text).Score
}

// IsScam reports whether text scores at or above the threshold.
func (c *Classifier) IsScam(text string) bool {
	return c.Analyze(text).Scam
}

// Analyze returns the score together with the matched families and keywords.
func (c *Classifier) Analyze(text string) Assessment {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return Assessment{}
	}

	var (
		result   Assessment
		keywords []string
		seen     = make(map[string]bool)
	)

	for _, f := range c.families {
		matches := f.pattern.FindAllString(normalized, -1)
		if len(matches) == 0 {
			continue
		}
		weight := f.weight
		if f.qualifier != nil && f.qualifier.MatchString(normalized) {
			weight = f.boosted
		}
		result.Score += weight
		result.Families = append(result.Families, f.name)
		result.Notes = append(result.Notes, f.note)
		for _, m := range matches {
			kw := strings.ToLower(m)
			if !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}
		}
	}

	if links := suspiciousLinks(normalized); len(links) > 0 {
		result.Score += 0.20
		result.Families = append(result.Families, SuspiciousLink)
		result.Notes = append(result.Notes, "Scammer shares suspicious or shortened links")
	}

	if result.Score > 1 {
		result.Score = 1
	}
	result.Keywords = keywords
	result.Scam = result.Score >= c.threshold
	return result
}

func suspiciousLinks(text string) []string {
	var out []string
	for _, raw := range linkPattern.FindAllString(text, -1) {
		host := linkHost(raw)
		if host == "" || isTrusted(host) {
			continue
		}
		out = append(out, raw)
	}
	return out
}

func linkHost(raw string) string {
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func isTrusted(host string) bool {
	if shortenerHosts[host] {
		return false
	}
	host = strings.TrimPrefix(host, "www.")
	for _, trusted := range trustedHosts {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}
	return false
}
