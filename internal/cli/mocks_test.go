package cli

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/pricing"
	"github.com/alnah/go-minutes/internal/summarize"
	"github.com/alnah/go-minutes/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(ctx context.Context) (string, error)

	mu           sync.Mutex
	resolveCalls int
	checkCalls   int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkCalls++
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

// ---------------------------------------------------------------------------
// Mock PreparerFactory + MediaPreparer
// ---------------------------------------------------------------------------

type mockPreparerFactory struct {
	NewPreparerFunc func(ffmpegPath string, targetMB, margin float64) (MediaPreparer, error)

	mu        sync.Mutex
	calls     int
	lastMB    float64
	lastRatio float64

	preparer *mockPreparer
}

func (f *mockPreparerFactory) NewPreparer(ffmpegPath string, targetMB, margin float64, logger *slog.Logger) (MediaPreparer, error) {
	f.mu.Lock()
	f.calls++
	f.lastMB, f.lastRatio = targetMB, margin
	f.mu.Unlock()

	if f.NewPreparerFunc != nil {
		return f.NewPreparerFunc(ffmpegPath, targetMB, margin)
	}
	if f.preparer == nil {
		f.preparer = &mockPreparer{}
	}
	return f.preparer, nil
}

func (f *mockPreparerFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type mockPreparer struct {
	PrepareFunc func(ctx context.Context, src string) (audio.Artifact, error)
	ProbeFunc   func(ctx context.Context, path string) (time.Duration, error)

	mu           sync.Mutex
	prepareCalls []string
}

func (m *mockPreparer) Prepare(ctx context.Context, src string) (audio.Artifact, error) {
	m.mu.Lock()
	m.prepareCalls = append(m.prepareCalls, src)
	m.mu.Unlock()

	if m.PrepareFunc != nil {
		return m.PrepareFunc(ctx, src)
	}
	plan, err := audio.PlanFor(10 * time.Minute)
	if err != nil {
		return audio.Artifact{}, err
	}
	return audio.Artifact{Path: "/tmp/go-minutes-test/compressed.mp3", Size: 12 * 1024 * 1024, Plan: plan}, nil
}

func (m *mockPreparer) Probe(ctx context.Context, path string) (time.Duration, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return 10 * time.Minute, nil
}

func (m *mockPreparer) PrepareCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prepareCalls...)
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	mu       sync.Mutex
	lastKey  string
	calls    int
	mockImpl *mockTranscriber
}

func (f *mockTranscriberFactory) NewTranscriber(apiKey string, logger *slog.Logger) transcribe.Transcriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKey = apiKey
	if f.mockImpl == nil {
		f.mockImpl = &mockTranscriber{}
	}
	return f.mockImpl
}

func (f *mockTranscriberFactory) LastKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastKey
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string, opts transcribe.Options) (string, error)

	mu       sync.Mutex
	calls    int
	lastOpts transcribe.Options
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastOpts = opts
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath, opts)
	}
	return "Ana opened the meeting. The team agreed to ship on Friday.", nil
}

func (m *mockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockTranscriber) LastOpts() transcribe.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpts
}

// ---------------------------------------------------------------------------
// Mock SummarizerFactory + Summarizer
// ---------------------------------------------------------------------------

type mockSummarizerFactory struct {
	NewSummarizerFunc func(apiKey string, rates pricing.RateTable) (Summarizer, error)

	mu       sync.Mutex
	calls    int
	lastKey  string
	lastOpts int
	mockImpl *mockSummarizer
}

func (f *mockSummarizerFactory) NewSummarizer(apiKey string, rates pricing.RateTable, opts ...summarize.Option) (Summarizer, error) {
	f.mu.Lock()
	f.calls++
	f.lastKey = apiKey
	f.lastOpts = len(opts)
	f.mu.Unlock()

	if f.NewSummarizerFunc != nil {
		return f.NewSummarizerFunc(apiKey, rates)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mockImpl == nil {
		f.mockImpl = &mockSummarizer{}
	}
	return f.mockImpl, nil
}

func (f *mockSummarizerFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type mockSummarizer struct {
	SummarizeFunc func(ctx context.Context, transcript string) (summarize.Result, error)

	mu             sync.Mutex
	calls          int
	lastTranscript string
}

func (m *mockSummarizer) Summarize(ctx context.Context, transcript string) (summarize.Result, error) {
	m.mu.Lock()
	m.calls++
	m.lastTranscript = transcript
	m.mu.Unlock()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, transcript)
	}
	return sampleResult(), nil
}

func (m *mockSummarizer) Model() string { return "gpt-4o-mini" }

func (m *mockSummarizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSummarizer) LastTranscript() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTranscript
}

// Compile-time interface checks.
var (
	_ FFmpegResolver     = (*mockFFmpegResolver)(nil)
	_ ConfigLoader       = (*mockConfigLoader)(nil)
	_ PreparerFactory    = (*mockPreparerFactory)(nil)
	_ MediaPreparer      = (*mockPreparer)(nil)
	_ TranscriberFactory = (*mockTranscriberFactory)(nil)
	_ SummarizerFactory  = (*mockSummarizerFactory)(nil)
	_ Summarizer         = (*mockSummarizer)(nil)
)
