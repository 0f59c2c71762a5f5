package summarize

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-minutes/internal/pricing"
)

// ReduceBudget returns max(ceiling-messageTokens-schemaTokens, 0).
func ReduceBudget(ceiling, messageTokens, schemaTokens int) int {
	return max(ceiling-messageTokens-schemaTokens, 0)
}

// mergeDocument joins the extracts in chunk order, one per line.
func mergeDocument(partials []PartialSummary) string {
	ordered := slices.SortedStableFunc(slices.Values(partials), func(a, b PartialSummary) int {
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})
	texts := make([]string, len(ordered))
	for i, p := range ordered {
		texts[i] = p.ExtractText
	}
	return strings.Join(texts, "\n")
}

// Reduce merges the extracts into structured minutes with one forced
// function call.
//
// Remote errors are returned. A payload that cannot be decoded into the
// minutes shape is logged and yields a nil summary with a nil error; the
// cost of the answered request is returned either way.
//
// When the estimated request already fills the ceiling the request is still
// sent with a zero budget. go-openai omits a zero max_tokens, so no limit is
// sent and the ceiling does not bound the response; the service default
// applies. A warning is logged.
func (s *Summarizer) Reduce(ctx context.Context, partials []PartialSummary) (*StructuredSummary, pricing.CostRecord, error) {
	summary, call, err := s.reduce(ctx, partials)
	return summary, call.Cost, err
}

func (s *Summarizer) reduce(ctx context.Context, partials []PartialSummary) (*StructuredSummary, Call, error) {
	tool, err := minutesTool()
	if err != nil {
		return nil, Call{}, err
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: reduceInstruction + mergeDocument(partials)},
	}
	tools := []openai.Tool{tool}

	messageTokens := s.estimator.EstimateMessages(messages)
	schemaTokens := s.estimator.EstimateTools(tools)
	budget := ReduceBudget(s.ceiling, messageTokens, schemaTokens)

	log := s.logger.With(slog.String("phase", PhaseReduce), slog.String("model", s.model))
	log.Debug("reducing extracts",
		slog.Int("extracts", len(partials)),
		slog.Int("message_tokens", messageTokens),
		slog.Int("schema_tokens", schemaTokens),
		slog.Int("budget", budget),
	)
	if budget == 0 {
		log.Warn("reduce request exceeds the token ceiling, sending with zero budget",
			slog.Int("ceiling", s.ceiling),
			slog.Int("estimated_tokens", messageTokens+schemaTokens),
		)
	}

	s.progress(PhaseReduce, 1, 1)
	resp, cost, err := s.complete(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   budget,
		Temperature: zeroTemperature,
		Tools:       tools,
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: minutesToolName},
		},
	})
	if err != nil {
		return nil, Call{}, fmt.Errorf("reduce: %w", err)
	}

	call := Call{Phase: PhaseReduce, ChunkIndex: -1, Model: s.model, Budget: budget, Cost: cost}
	s.observe(call)
	log.Info("extracts reduced",
		slog.Int("prompt_tokens", cost.PromptTokens),
		slog.Int("completion_tokens", cost.CompletionTokens),
		slog.Float64("cost_usd", cost.Amount),
	)

	summary, err := decodeSummary(resp)
	if err != nil {
		log.Error("structured summary discarded", slog.Any("error", err))
		return nil, call, nil
	}
	return summary, call, nil
}

// decodeSummary extracts the minutes from the first choice.
// Every failure wraps ErrParse.
func decodeSummary(resp openai.ChatCompletionResponse) (*StructuredSummary, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrParse)
	}
	args, err := functionArguments(resp.Choices[0].Message)
	if err != nil {
		return nil, err
	}
	return parseSummary(args)
}
