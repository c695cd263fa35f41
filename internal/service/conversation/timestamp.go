package conversation

import (
	"strconv"
	"strings"
	"time"
)

const (
	// epoch values above this are treated as milliseconds.
	millisCutoff = 1_000_000_000_000
	// 9999-12-31T23:59:59.999Z, the last instant encoding/json can marshal.
	maxEpochMillis = 253_402_300_799_999
	// clients with a fast clock get this much slack before a value is rejected.
	maxFutureSkew = 24 * time.Hour
)

// ParseTimestamp accepts RFC 3339 strings and epoch seconds or milliseconds.
// Anything else, including an empty value or an instant outside
// (1970, now+24h], resolves to now.
func ParseTimestamp(raw string, now time.Time) time.Time {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" {
		return now
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return plausible(t.UTC(), now)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n <= 0 || n > maxEpochMillis {
			return now
		}
		if n >= millisCutoff {
			return plausible(time.UnixMilli(n).UTC(), now)
		}
		return plausible(time.Unix(n, 0).UTC(), now)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		// NaN fails both comparisons; +Inf fails the upper bound.
		if !(f > 0 && f <= maxEpochMillis) {
			return now
		}
		if f >= millisCutoff {
			return plausible(time.UnixMilli(int64(f)).UTC(), now)
		}
		return plausible(time.UnixMilli(int64(f*1000)).UTC(), now)
	}
	return now
}

func plausible(t, now time.Time) time.Time {
	if t.Unix() <= 0 || t.After(now.Add(maxFutureSkew)) {
		return now
	}
	return t
}
