package serp

import "strings"

// matchThreshold is the fraction of target-name tokens that must appear in a
// result title for a fuzzy match.
const matchThreshold = 0.5

// MatchBusinessName reports whether a search-result title refers to the target
// business. It tries an exact case-insensitive comparison first, then falls
// back to token overlap: at least half of the target's tokens must occur in
// the title. Tokens are whitespace-separated and compared case-insensitively.
func MatchBusinessName(title, target string) bool {
	title = strings.TrimSpace(strings.ToLower(title))
	target = strings.TrimSpace(strings.ToLower(target))
	if target == "" {
		return false
	}
	if title == target {
		return true
	}

	titleTokens := make(map[string]bool)
	for _, token := range strings.Fields(title) {
		titleTokens[trimToken(token)] = true
	}

	targetTokens := strings.Fields(target)
	matched := 0
	for _, token := range targetTokens {
		if titleTokens[trimToken(token)] {
			matched++
		}
	}

	return float64(matched) >= matchThreshold*float64(len(targetTokens))
}

// trimToken strips common punctuation so "Acme," matches "acme".
func trimToken(token string) string {
	return strings.Trim(token, ".,;:!?\"'()-&")
}
