package model

import (
	"strings"
	"time"
)

const day = 24 * time.Hour

// DefaultPromotionSpan is used when a duration literal is not recognized, so a
// bad value can never produce an open-ended promotion.
const DefaultPromotionSpan = 7 * day

var durationLiterals = map[string]time.Duration{
	"7 days":   7 * day,
	"7 أيام":   7 * day,
	"7 ايام":   7 * day,
	"أسبوع":    7 * day,
	"14 days":  14 * day,
	"14 يوم":   14 * day,
	"14 يوماً": 14 * day,
	"أسبوعين":  14 * day,
	"30 days":  30 * day,
	"30 يوم":   30 * day,
	"30 يوماً": 30 * day,
	"شهر":      30 * day,
}

// ParseDuration maps a package duration literal to its span. The boolean is
// false for unknown literals, in which case DefaultPromotionSpan is returned.
func ParseDuration(raw string) (time.Duration, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if d, ok := durationLiterals[key]; ok {
		return d, true
	}
	return DefaultPromotionSpan, false
}
