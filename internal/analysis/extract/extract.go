// Package extract pulls financial identifiers, phone numbers and links out of free text.
//
// Matchers run in priority order (UPI, URL, phone, bank account). A candidate that
// overlaps text already claimed by a higher-priority matcher, or whose normalized
// value was already claimed under another kind, is dropped.
package extract

import (
	"regexp"
	"sort"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

type candidate struct {
	start, end int
	value      string
}

type matcher struct {
	kind chat.Kind
	find func(text string) []candidate
}

// Extractor applies a ranked list of typed matchers.
type Extractor struct {
	matchers []matcher
}

// New returns the default extractor.
func New() *Extractor {
	return &Extractor{matchers: []matcher{
		{kind: chat.KindUPIID, find: findUPI},
		{kind: chat.KindURL, find: findURLs},
		{kind: chat.KindPhoneNumber, find: findPhones},
		{kind: chat.KindBankAccount, find: findBankAccounts},
	}}
}

var defaultExtractor = New()

// Extract runs the default extractor over text.
func Extract(text string) []chat.Finding {
	return defaultExtractor.Extract(text)
}

// Extract returns the deduplicated findings in text, ordered by position.
// FirstSeenTurn is left zero for the caller to stamp.
func (e *Extractor) Extract(text string) []chat.Finding {
	type claimed struct {
		start, end int
		finding    chat.Finding
	}

	var (
		spans  []claimed
		values = make(map[string]bool)
		keys   = make(map[string]bool)
	)

	overlaps := func(start, end int) bool {
		for _, s := range spans {
			if start < s.end && s.start < end {
				return true
			}
		}
		return false
	}

	for _, m := range e.matchers {
		for _, c := range m.find(text) {
			if c.value == "" || overlaps(c.start, c.end) {
				continue
			}
			f := chat.Finding{Kind: m.kind, Value: c.value}
			if keys[f.Key()] {
				spans = append(spans, claimed{start: c.start, end: c.end, finding: f})
				continue
			}
			if values[c.value] {
				continue
			}
			values[c.value] = true
			keys[f.Key()] = true
			spans = append(spans, claimed{start: c.start, end: c.end, finding: f})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	out := make([]chat.Finding, 0, len(spans))
	emitted := make(map[string]bool, len(spans))
	for _, s := range spans {
		if emitted[s.finding.Key()] {
			continue
		}
		emitted[s.finding.Key()] = true
		out = append(out, s.finding)
	}
	return out
}

// scan walks every match of re in text, retrying one byte later whenever accept
// rejects a match so a bad leftmost match cannot hide a good one.
func scan(re *regexp.Regexp, text string, accept func(start, end int) (string, bool)) []candidate {
	var out []candidate
	pos := 0
	for pos < len(text) {
		loc := re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if value, ok := accept(start, end); ok {
			out = append(out, candidate{start: start, end: end, value: value})
			pos = end
			continue
		}
		pos = start + 1
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func digitsOnly(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			buf = append(buf, s[i])
		}
	}
	return string(buf)
}
