// Package transcribe converts a prepared audio artifact to text with the
// OpenAI transcription endpoint.
package transcribe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-minutes/internal/apierr"
	"github.com/alnah/go-minutes/internal/format"
)

// DefaultModel is the transcription model.
const DefaultModel = openai.Whisper1

// MaxUploadBytes is the size ceiling of one transcription upload.
const MaxUploadBytes = 25 * 1024 * 1024

// Options configures one transcription request.
type Options struct {
	// Prompt provides context to improve accuracy, e.g. names and acronyms.
	Prompt string

	// Language is an ISO 639-1 hint. Empty means auto-detect.
	Language string
}

// Transcriber transcribes audio files to text.
type Transcriber interface {
	// Transcribe converts the audio file at audioPath to text.
	Transcribe(ctx context.Context, audioPath string, opts Options) (string, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio using OpenAI's transcription API.
// Failures are classified into apierr sentinels and never retried.
type OpenAITranscriber struct {
	client audioTranscriber
	model  string
	stat   func(name string) (os.FileInfo, error)
	logger *slog.Logger
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel sets the transcription model.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if l != nil {
			t.logger = l
		}
	}
}

// withAudioTranscriber sets a custom client (for testing).
func withAudioTranscriber(c audioTranscriber) TranscriberOption {
	return func(t *OpenAITranscriber) {
		t.client = c
	}
}

// NewOpenAITranscriber creates a new OpenAITranscriber.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		model:  DefaultModel,
		stat:   os.Stat,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe uploads audioPath and returns the transcript text.
// An upload above MaxUploadBytes is still sent, with a warning, since the
// bitrate floor can legitimately produce one; the service then decides.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (string, error) {
	log := t.logger.With(slog.String("file", filepath.Base(audioPath)), slog.String("model", t.model))

	info, err := t.stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("cannot read audio file: %w", err)
	}
	if info.Size() > MaxUploadBytes {
		log.Warn("audio exceeds the upload ceiling, the service may reject it",
			slog.String("size", format.Size(info.Size())),
			slog.String("ceiling", format.Size(MaxUploadBytes)),
		)
	}

	log.Info("transcribing", slog.String("size", format.Size(info.Size())))
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   opts.Prompt,
		Language: baseLanguage(opts.Language),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", apierr.Classify(err))
	}

	text := strings.TrimSpace(resp.Text)
	log.Info("transcribed", slog.Int("chars", len([]rune(text))))
	return text, nil
}

// baseLanguage reduces a locale such as "pt-BR" or "pt_BR" to its ISO 639-1
// base code, the only form the endpoint accepts.
func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	base, _, _ := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	return base
}
