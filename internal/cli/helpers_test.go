package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/logging"
	"github.com/alnah/go-minutes/internal/pricing"
	"github.com/alnah/go-minutes/internal/summarize"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	preparer       *mockPreparerFactory
	transcriber    *mockTranscriberFactory
	summarizer     *mockSummarizerFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		preparer:       &mockPreparerFactory{},
		transcriber:    &mockTranscriberFactory{},
		summarizer:     &mockSummarizerFactory{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

type testEnvOptions struct {
	getenv func(string) string
	mocks  *testMocks
}

type testEnvOption func(*testEnvOptions)

func withTestGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

func withTestConfig(cfg config.Config) testEnvOption {
	return func(o *testEnvOptions) {
		o.mocks.configLoader = configLoaderFor(cfg)
	}
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env, its stdout and stderr buffers, and the mocks.
func testEnv(opts ...testEnvOption) (*Env, *syncBuffer, *syncBuffer, *testMocks) {
	options := &testEnvOptions{
		getenv: defaultTestEnv,
		mocks:  newTestMocks(),
	}
	for _, opt := range opts {
		opt(options)
	}

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := &Env{
		Stdout:             stdout,
		Stderr:             stderr,
		Getenv:             options.getenv,
		Now:                fixedTime(time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)),
		NewRunID:           func() string { return "6f1c2a90-5b7e-4d2e-9c41-0a8b3e7d5f12" },
		Logger:             logging.Discard(),
		FFmpegResolver:     options.mocks.ffmpegResolver,
		ConfigLoader:       options.mocks.configLoader,
		PreparerFactory:    options.mocks.preparer,
		TranscriberFactory: options.mocks.transcriber,
		SummarizerFactory:  options.mocks.summarizer,
	}
	return env, stdout, stderr, options.mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns an OpenAI key and nothing else.
func defaultTestEnv(key string) string {
	if key == EnvOpenAIAPIKey {
		return "test-openai-key"
	}
	return ""
}

// configLoaderFor returns a ConfigLoader that always returns cfg.
func configLoaderFor(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) { return cfg, nil },
	}
}

// writeTestFile creates name in a fresh temp dir with content.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

// readTestFile returns the content of path or fails the test.
func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// sampleResult is a two-chunk run priced at gpt-4o-mini rates:
// map $0.000540, reduce $0.000255, total $0.000795.
func sampleResult() summarize.Result {
	return summarize.Result{
		Summary: &summarize.StructuredSummary{
			Summary:        "The team reviewed the release.",
			SummaryBullets: []string{"Release is on track"},
			Decisions:      []string{"Ship on Friday"},
			Tasks:          []string{"Ana writes the changelog"},
		},
		Calls: []summarize.Call{
			{Phase: summarize.PhaseMap, ChunkIndex: 0, Model: "gpt-4o-mini", Cost: pricing.CostRecord{PromptTokens: 1000, CompletionTokens: 200, Amount: 0.00027}},
			{Phase: summarize.PhaseMap, ChunkIndex: 1, Model: "gpt-4o-mini", Cost: pricing.CostRecord{PromptTokens: 1000, CompletionTokens: 200, Amount: 0.00027}},
			{Phase: summarize.PhaseReduce, ChunkIndex: -1, Model: "gpt-4o-mini", Cost: pricing.CostRecord{PromptTokens: 500, CompletionTokens: 300, Amount: 0.000255}},
		},
	}
}
