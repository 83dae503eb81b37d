package extract

import (
	"regexp"
	"strings"
)

// orderIDMatcher is one strategy for locating the merchant order reference.
// Matchers are evaluated in priority order and the first hit wins; a message
// matching none simply has no order ID, which is not an error.
type orderIDMatcher struct {
	name    string
	pattern *regexp.Regexp
	pick    func(groups []string) string
}

var orderIDMatchers = []orderIDMatcher{
	{
		name:    "remark",
		pattern: regexp.MustCompile(`Remark:\s+([^\n]+)`),
		pick:    firstGroup,
	},
	{
		name:    "remark-or-bill-number",
		pattern: regexp.MustCompile(`(?i)Remark[:\s]+([^\n]+)|Bill\s+Number[:\s]+([^\n]+)`),
		pick:    firstNonEmptyGroup,
	},
	{
		// Bare order token; only the digits are the reference.
		name:    "bare-order-token",
		pattern: regexp.MustCompile(`(?i)ORDER[-_]?(\d+)`),
		pick:    firstGroup,
	},
	{
		name:    "order-id-field",
		pattern: regexp.MustCompile(`(?i)Order\s+ID[:\s]+([^\s\n]+)`),
		pick:    firstGroup,
	},
	{
		name:    "bill-field",
		pattern: regexp.MustCompile(`(?i)Bill[:\s]+([^\s\n]+)`),
		pick:    firstGroup,
	},
}

// extractOrderID runs the matcher cascade. The returned value is trimmed of
// surrounding whitespace but otherwise untouched.
func extractOrderID(text string) (string, bool) {
	for _, m := range orderIDMatchers {
		groups := m.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		if v := strings.TrimSpace(m.pick(groups)); v != "" {
			return v, true
		}
	}
	return "", false
}

func firstGroup(groups []string) string {
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

func firstNonEmptyGroup(groups []string) string {
	for _, g := range groups[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
