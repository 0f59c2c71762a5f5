// Package summarize compresses a transcript of any length into structured
// meeting minutes under a per-request token ceiling.
//
// The transcript is split into chunks, each chunk is reduced to a prose
// extract (map phase), and the extracts are merged by one forced function
// call into a StructuredSummary (reduce phase). Every remote call is priced.
package summarize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-minutes/internal/apierr"
	"github.com/alnah/go-minutes/internal/pricing"
)

// Default pipeline configuration.
const (
	DefaultModel   = openai.GPT3Dot5Turbo
	DefaultCeiling = 2000 // tokens per request

	// FallbackBudget replaces a non-positive map budget.
	FallbackBudget = 100

	// MaxParallel caps concurrent map requests.
	MaxParallel = 10
)

// zeroTemperature is the request temperature.
// go-openai omits a zero Temperature from the request body, which makes the
// service apply its default of 1; the smallest float32 encodes as ~0.
const zeroTemperature = math.SmallestNonzeroFloat32

// Phases reported to progress callbacks and call observers.
const (
	PhaseMap    = "map"
	PhaseReduce = "reduce"
)

// chatCompleter is an internal interface for OpenAI chat completion.
// *openai.Client implements this implicitly.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance check.
var _ chatCompleter = (*openai.Client)(nil)

// Call is the priced record of one remote request.
type Call struct {
	Phase      string
	ChunkIndex int // -1 for the reduce call
	Model      string
	Budget     int
	Cost       pricing.CostRecord
}

// Summarizer runs the map-reduce pipeline against one model.
type Summarizer struct {
	client    chatCompleter
	rates     pricing.RateTable
	model     string
	ceiling   int
	chunkSize int
	overlap   int
	parallel  int
	estimator TokenEstimator
	logger    *slog.Logger

	progressMu sync.Mutex
	onProgress func(phase string, current, total int)

	observeMu sync.Mutex
	onCall    func(Call)
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(s *Summarizer) {
		s.model = model
	}
}

// WithCeiling sets the per-request token ceiling.
func WithCeiling(tokens int) Option {
	return func(s *Summarizer) {
		s.ceiling = tokens
	}
}

// WithChunking sets the chunk size and overlap in characters.
func WithChunking(size, overlap int) Option {
	return func(s *Summarizer) {
		s.chunkSize = size
		s.overlap = overlap
	}
}

// WithParallel sets how many map requests may run at once.
// Values are clamped to [1, MaxParallel]; 1 maps chunks in document order.
func WithParallel(n int) Option {
	return func(s *Summarizer) {
		s.parallel = min(max(n, 1), MaxParallel)
	}
}

// WithEstimator replaces the character-ratio token estimator.
func WithEstimator(e TokenEstimator) Option {
	return func(s *Summarizer) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Summarizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProgress sets a progress callback.
// Calls are serialized, so fn needs no locking of its own even when map
// requests run in parallel.
func WithProgress(fn func(phase string, current, total int)) Option {
	return func(s *Summarizer) {
		s.onProgress = fn
	}
}

// WithCallObserver sets a callback invoked after every priced request.
// Calls are serialized; fn need not be safe for concurrent use.
func WithCallObserver(fn func(Call)) Option {
	return func(s *Summarizer) {
		s.onCall = fn
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) Option {
	return func(s *Summarizer) {
		s.client = cc
	}
}

// New creates a Summarizer. The model must have a rate so every call can be
// priced; this is checked here, before any request is sent.
func New(client *openai.Client, rates pricing.RateTable, opts ...Option) (*Summarizer, error) {
	s := &Summarizer{
		client:    client,
		rates:     rates,
		model:     DefaultModel,
		ceiling:   DefaultCeiling,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		parallel:  1,
		estimator: CharEstimator{Ratio: DefaultCharRatio},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.rates.Has(s.model) {
		return nil, fmt.Errorf("%w: %q has no rate (known: %v)", pricing.ErrUnknownModel, s.model, s.rates.Models())
	}
	if s.ceiling <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCeiling, s.ceiling)
	}
	if s.chunkSize <= 0 || s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidChunking, s.chunkSize, s.overlap)
	}
	return s, nil
}

// Model returns the chat model in use.
func (s *Summarizer) Model() string {
	return s.model
}

func (s *Summarizer) progress(phase string, current, total int) {
	if s.onProgress == nil {
		return
	}
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	s.onProgress(phase, current, total)
}

func (s *Summarizer) observe(c Call) {
	if s.onCall == nil {
		return
	}
	s.observeMu.Lock()
	defer s.observeMu.Unlock()
	s.onCall(c)
}

// complete sends req and prices the response.
// The cost is returned whenever the service answered, even if the caller
// later rejects the content.
func (s *Summarizer) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, pricing.CostRecord, error) {
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return resp, pricing.CostRecord{}, classifyChatError(err)
	}
	cost, err := s.rates.Record(s.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if err != nil {
		return resp, pricing.CostRecord{}, err
	}
	return resp, cost, nil
}

// classifyChatError maps chat completion failures to apierr sentinels.
func classifyChatError(err error) error {
	return fmt.Errorf("chat completion failed: %w", apierr.Classify(err))
}
