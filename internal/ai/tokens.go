package ai

import "strings"

// EstimateTokens approximates a provider token count: words for ascii text
// plus one per non-ascii rune, so CJK content is not undercounted. Non-empty
// input counts as at least one token.
func EstimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}
