package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/ffmpeg"
	"github.com/alnah/go-minutes/internal/pricing"
	"github.com/alnah/go-minutes/internal/summarize"
	"github.com/alnah/go-minutes/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout   io.Writer
	Stderr   io.Writer
	Getenv   func(string) string
	Now      func() time.Time
	NewRunID func() string

	// Logger receives diagnostics; Stderr receives user-facing progress.
	Logger *slog.Logger

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	PreparerFactory    PreparerFactory
	TranscriberFactory TranscriberFactory
	SummarizerFactory  SummarizerFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// MediaPreparer turns a media file into an upload-ready audio artifact.
type MediaPreparer interface {
	Prepare(ctx context.Context, src string) (audio.Artifact, error)
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// PreparerFactory creates media preparers.
type PreparerFactory interface {
	NewPreparer(ffmpegPath string, targetMB, margin float64, logger *slog.Logger) (MediaPreparer, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey string, logger *slog.Logger) transcribe.Transcriber
}

// Summarizer produces minutes from a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (summarize.Result, error)
	Model() string
}

// SummarizerFactory creates summarizers.
type SummarizerFactory interface {
	NewSummarizer(apiKey string, rates pricing.RateTable, opts ...summarize.Option) (Summarizer, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithRunID sets the run identifier generator.
func WithRunID(fn func() string) EnvOption {
	return func(e *Env) {
		e.NewRunID = fn
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) EnvOption {
	return func(e *Env) {
		e.Logger = l
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithPreparerFactory sets the media preparer factory.
func WithPreparerFactory(f PreparerFactory) EnvOption {
	return func(e *Env) {
		e.PreparerFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// WithSummarizerFactory sets the summarizer factory.
func WithSummarizerFactory(f SummarizerFactory) EnvOption {
	return func(e *Env) {
		e.SummarizerFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		NewRunID:           uuid.NewString,
		Logger:             slog.New(slog.NewTextHandler(os.Stderr, nil)),
		FFmpegResolver:     &defaultFFmpegResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		PreparerFactory:    &defaultPreparerFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		SummarizerFactory:  &defaultSummarizerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.NewResolver().Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger) {
	ffmpeg.NewVersionChecker(ffmpeg.WithVersionLogger(logger)).Check(ctx, ffmpegPath)
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultPreparerFactory implements PreparerFactory using the audio package.
type defaultPreparerFactory struct{}

func (defaultPreparerFactory) NewPreparer(ffmpegPath string, targetMB, margin float64, logger *slog.Logger) (MediaPreparer, error) {
	return audio.NewPreparer(ffmpegPath, audio.WithTarget(targetMB, margin), audio.WithLogger(logger))
}

// defaultTranscriberFactory implements TranscriberFactory using OpenAI.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string, logger *slog.Logger) transcribe.Transcriber {
	return transcribe.NewOpenAITranscriber(openai.NewClient(apiKey), transcribe.WithLogger(logger))
}

// defaultSummarizerFactory implements SummarizerFactory using OpenAI.
type defaultSummarizerFactory struct{}

func (defaultSummarizerFactory) NewSummarizer(apiKey string, rates pricing.RateTable, opts ...summarize.Option) (Summarizer, error) {
	return summarize.New(openai.NewClient(apiKey), rates, opts...)
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ PreparerFactory    = (*defaultPreparerFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ SummarizerFactory  = (*defaultSummarizerFactory)(nil)
	_ MediaPreparer      = (*audio.Preparer)(nil)
	_ Summarizer         = (*summarize.Summarizer)(nil)
)
