package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-minutes/internal/pricing"
)

// MapBudget returns the completion budget of one chunk:
// min(ceiling/chunkCount, ceiling-estimated), or FallbackBudget when that is not positive.
func MapBudget(ceiling, chunkCount, estimated int) int {
	budget := min(ceiling/max(chunkCount, 1), ceiling-estimated)
	if budget <= 0 {
		return FallbackBudget
	}
	return budget
}

// MapChunk extracts the important content of one chunk.
// chunkCount is the total number of chunks and divides the ceiling.
//
// Remote errors are classified and returned without retry. A response
// without text is ErrMalformedResponse; its cost is still returned.
func (s *Summarizer) MapChunk(ctx context.Context, chunk TranscriptChunk, chunkCount int) (PartialSummary, pricing.CostRecord, error) {
	partial, call, err := s.mapChunk(ctx, chunk, chunkCount)
	return partial, call.Cost, err
}

// mapChunk is MapChunk returning the whole Call.
// The Call has an empty Phase when the service never answered.
func (s *Summarizer) mapChunk(ctx context.Context, chunk TranscriptChunk, chunkCount int) (PartialSummary, Call, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: mapSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: chunk.Text},
	}
	estimated := s.estimator.EstimateMessages(messages)
	budget := MapBudget(s.ceiling, chunkCount, estimated)

	log := s.logger.With(
		slog.Int("chunk", chunk.Index),
		slog.Int("chunks", chunkCount),
		slog.String("model", s.model),
	)
	log.Debug("mapping chunk",
		slog.Int("chars", chunk.CharCount),
		slog.Int("estimated_tokens", estimated),
		slog.Int("budget", budget),
	)

	resp, cost, err := s.complete(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   budget,
		Temperature: zeroTemperature,
	})
	if err != nil {
		return PartialSummary{}, Call{}, fmt.Errorf("chunk %d/%d: %w", chunk.Index+1, chunkCount, err)
	}

	call := Call{Phase: PhaseMap, ChunkIndex: chunk.Index, Model: s.model, Budget: budget, Cost: cost}
	s.observe(call)
	log.Info("chunk mapped",
		slog.Int("prompt_tokens", cost.PromptTokens),
		slog.Int("completion_tokens", cost.CompletionTokens),
		slog.Float64("cost_usd", cost.Amount),
	)

	if len(resp.Choices) == 0 {
		log.Error("completion has no choices")
		return PartialSummary{}, call, fmt.Errorf("chunk %d/%d: no choices: %w", chunk.Index+1, chunkCount, ErrMalformedResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		log.Error("completion has no text", slog.String("finish_reason", string(resp.Choices[0].FinishReason)))
		return PartialSummary{}, call, fmt.Errorf("chunk %d/%d: empty content: %w", chunk.Index+1, chunkCount, ErrMalformedResponse)
	}
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		log.Warn("extract truncated at budget", slog.Int("budget", budget))
	}

	return PartialSummary{ChunkIndex: chunk.Index, ExtractText: text}, call, nil
}

// Map extracts every chunk and returns the partials in chunk order.
// With parallelism 1 chunks are sent one at a time in document order;
// otherwise up to the configured number run concurrently and the first
// failure cancels the rest.
//
// The returned calls hold one entry per answered request, in chunk order,
// including requests answered before a failure.
func (s *Summarizer) Map(ctx context.Context, chunks []TranscriptChunk) ([]PartialSummary, []Call, error) {
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	partials := make([]PartialSummary, len(chunks))
	calls := make([]Call, len(chunks))

	// run maps chunks[i]; each invocation writes only index i.
	run := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.progress(PhaseMap, i+1, len(chunks))

		partial, call, err := s.mapChunk(ctx, chunks[i], len(chunks))
		calls[i] = call
		if err != nil {
			return err
		}
		partials[i] = partial
		return nil
	}

	var err error
	if s.parallel == 1 {
		for i := range chunks {
			if err = run(ctx, i); err != nil {
				break
			}
		}
	} else {
		// Semaphore channel for concurrency control.
		sem := make(chan struct{}, s.parallel)
		g, gctx := errgroup.WithContext(ctx)

		for i := range chunks {
			g.Go(func() error {
				select {
				case sem <- struct{}{}:
				case <-gctx.Done():
					return gctx.Err()
				}
				defer func() { <-sem }()

				return run(gctx, i)
			})
		}
		err = g.Wait()
	}

	answered := make([]Call, 0, len(calls))
	for _, c := range calls {
		if c.Phase != "" {
			answered = append(answered, c)
		}
	}

	if err != nil {
		return nil, answered, err
	}
	return partials, answered, nil
}
