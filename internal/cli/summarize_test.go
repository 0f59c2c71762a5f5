package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-minutes/internal/config"
)

// ---------------------------------------------------------------------------
// runSummarize
// ---------------------------------------------------------------------------

func newSummarizeOptions(input, outDir string) summarizeOptions {
	return summarizeOptions{
		input:   input,
		summary: newRunOptions(input).summary,
		output:  outputFlags{outputDir: outDir},
	}
}

func TestRunSummarize_Success(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	env, _, stderr, mocks := testEnv()
	input := writeTestFile(t, "standup_transcript.txt", "Rui: the build is green.\nAna: let's ship.\n")

	if err := runSummarize(context.Background(), env, newSummarizeOptions(input, outDir)); err != nil {
		t.Fatalf("runSummarize() unexpected error: %v", err)
	}

	summary := readTestFile(t, filepath.Join(outDir, "standup_summary.txt"))
	if !strings.Contains(summary, "== Decisions ==\n- Ship on Friday\n") {
		t.Errorf("summary = %q", summary)
	}
	if got := mocks.summarizer.mockImpl.LastTranscript(); !strings.HasPrefix(got, "Rui: the build is green.") {
		t.Errorf("transcript passed = %q", got)
	}
	if mocks.ffmpegResolver.ResolveCalls() != 0 {
		t.Error("summarize must not need FFmpeg")
	}
	if !strings.Contains(stderr.String(), "reduce   1 call(s)") {
		t.Errorf("stderr missing reduce cost line:\n%s", stderr.String())
	}
}

func TestRunSummarize_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing transcript", func(t *testing.T) {
		t.Parallel()
		env, _, _, _ := testEnv()

		err := runSummarize(context.Background(), env, newSummarizeOptions(filepath.Join(t.TempDir(), "x.txt"), t.TempDir()))
		if !errors.Is(err, ErrFileNotFound) {
			t.Errorf("error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("output exists", func(t *testing.T) {
		t.Parallel()
		outDir := t.TempDir()
		if err := os.WriteFile(filepath.Join(outDir, "notes_summary.txt"), nil, 0644); err != nil {
			t.Fatal(err)
		}
		env, _, _, mocks := testEnv()

		err := runSummarize(context.Background(), env, newSummarizeOptions(writeTestFile(t, "notes.txt", "hi"), outDir))
		if !errors.Is(err, ErrOutputExists) {
			t.Errorf("error = %v, want ErrOutputExists", err)
		}
		if mocks.summarizer.Calls() != 0 {
			t.Error("summarizer should not be created")
		}
	})

	t.Run("config error", func(t *testing.T) {
		t.Parallel()
		env, _, _, mocks := testEnv()
		mocks.configLoader.LoadFunc = func() (config.Config, error) {
			return config.Config{}, config.ErrInvalidSyntax
		}

		err := runSummarize(context.Background(), env, newSummarizeOptions(writeTestFile(t, "notes.txt", "hi"), t.TempDir()))
		if !errors.Is(err, config.ErrInvalidSyntax) {
			t.Errorf("error = %v, want ErrInvalidSyntax", err)
		}
	})
}
