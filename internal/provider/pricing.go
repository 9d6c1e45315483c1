package provider

// Token-to-credit conversion. Output tokens are weighted heavier than
// input tokens to track real provider pricing ratios.
const (
	inputTokensPerCredit  = 4000
	outputTokensPerCredit = 1000
)

// CalculateCredits converts token usage into whole credits, charging a
// minimum of one credit for any non-zero usage.
func CalculateCredits(inputTokens, outputTokens int64) int64 {
	if inputTokens <= 0 && outputTokens <= 0 {
		return 0
	}
	credits := inputTokens/inputTokensPerCredit + outputTokens/outputTokensPerCredit
	if credits < 1 {
		credits = 1
	}
	return credits
}
