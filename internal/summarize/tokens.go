package summarize

import (
	"encoding/json"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultCharRatio is the tokens-per-character factor of CharEstimator.
const DefaultCharRatio = 1.1

// TokenEstimator approximates request sizes for budget planning.
// Estimates are never used for billing; response usage is authoritative.
type TokenEstimator interface {
	EstimateMessages(messages []openai.ChatCompletionMessage) int
	EstimateTools(tools []openai.Tool) int
}

// Compile-time interface compliance check.
var _ TokenEstimator = CharEstimator{}

// CharEstimator counts characters and scales them by Ratio.
// At 1.1 tokens per character it over-estimates Latin and CJK text alike.
type CharEstimator struct {
	Ratio float64 // zero means DefaultCharRatio
}

func (e CharEstimator) ratio() float64 {
	if e.Ratio <= 0 {
		return DefaultCharRatio
	}
	return e.Ratio
}

// EstimateMessages scales the character count of all message contents.
func (e CharEstimator) EstimateMessages(messages []openai.ChatCompletionMessage) int {
	var chars int
	for _, m := range messages {
		chars += utf8.RuneCountInString(m.Content)
	}
	return int(float64(chars) * e.ratio())
}

// EstimateTools scales the character count of the tools' JSON encoding.
func (e CharEstimator) EstimateTools(tools []openai.Tool) int {
	if len(tools) == 0 {
		return 0
	}
	data, err := json.Marshal(tools)
	if err != nil {
		return 0
	}
	return int(float64(utf8.RuneCount(data)) * e.ratio())
}
