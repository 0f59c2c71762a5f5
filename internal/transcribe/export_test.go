package transcribe

import "os"

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// AudioTranscriber exports audioTranscriber for mock implementations.
type AudioTranscriber = audioTranscriber

// WithAudioTranscriber injects a transcription mock.
var WithAudioTranscriber = withAudioTranscriber

// WithStat replaces os.Stat.
func WithStat(fn func(name string) (os.FileInfo, error)) TranscriberOption {
	return func(t *OpenAITranscriber) {
		t.stat = fn
	}
}

// BaseLanguage exports baseLanguage for testing.
var BaseLanguage = baseLanguage
