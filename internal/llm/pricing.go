package llm

// Static per-model prices in USD per 1K tokens. Unknown models cost zero so
// accounting degrades gracefully when a new model name appears.
type modelPrice struct {
	promptPer1K     float64
	completionPer1K float64
}

var priceTable = map[string]modelPrice{
	"gpt-4o":        {promptPer1K: 0.0025, completionPer1K: 0.01},
	"gpt-4o-mini":   {promptPer1K: 0.00015, completionPer1K: 0.0006},
	"gpt-3.5-turbo": {promptPer1K: 0.0005, completionPer1K: 0.0015},
}

// EstimateCost derives a dollar-cost estimate from token usage.
func EstimateCost(model string, usage Usage) float64 {
	price, ok := priceTable[model]
	if !ok {
		return 0
	}
	return float64(usage.PromptTokens)/1000*price.promptPer1K +
		float64(usage.CompletionTokens)/1000*price.completionPer1K
}
