package summarize_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-minutes/internal/pricing"
	"github.com/alnah/go-minutes/internal/summarize"
)

// ---------------------------------------------------------------------------
// Mock ChatCompleter
// ---------------------------------------------------------------------------

type mockChatCompleter struct {
	CreateFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

var _ summarize.ChatCompleter = (*mockChatCompleter)(nil)

func (m *mockChatCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	if len(req.Tools) > 0 {
		return toolResponse(validMinutesJSON, 900, 150), nil
	}
	return textResponse("Extract of: "+userContent(req), 700, 80), nil
}

func (m *mockChatCompleter) Requests() []openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), m.requests...)
}

// mapRequests returns the requests without tools, i.e. map-phase requests.
func (m *mockChatCompleter) mapRequests() []openai.ChatCompletionRequest {
	var out []openai.ChatCompletionRequest
	for _, r := range m.Requests() {
		if len(r.Tools) == 0 {
			out = append(out, r)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Response builders
// ---------------------------------------------------------------------------

const validMinutesJSON = `{
	"summary": "The team reviewed the launch plan.",
	"summary_bullet": ["Launch moved to May", "Budget approved"],
	"decisions": ["Ship the beta on May 3"],
	"tasks": ["Alice drafts the announcement"]
}`

func textResponse(content string, prompt, completion int) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion},
	}
}

func toolResponse(arguments string, prompt, completion int) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      summarize.MinutesToolName,
						Arguments: arguments,
					},
				}},
			},
			FinishReason: openai.FinishReasonToolCalls,
		}},
		Usage: openai.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion},
	}
}

func userContent(req openai.ChatCompletionRequest) string {
	for _, m := range req.Messages {
		if m.Role == openai.ChatMessageRoleUser {
			return m.Content
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// wordText returns n copies of "word" separated by single spaces:
// 5n-1 characters.
func wordText(n int) string {
	return strings.TrimSuffix(strings.Repeat("word ", n), " ")
}

func newTestSummarizer(t *testing.T, mock *mockChatCompleter, opts ...summarize.Option) *summarize.Summarizer {
	t.Helper()

	opts = append([]summarize.Option{summarize.WithChatCompleter(mock)}, opts...)
	s, err := summarize.New(nil, pricing.Default(), opts...)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return s
}
