package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/format"
	"github.com/alnah/go-minutes/internal/transcribe"
)

// supportedFormatsList returns a sorted, comma-separated list for error messages.
func supportedFormatsList() string {
	exts := audio.SupportedExtensions()
	for i, ext := range exts {
		exts[i] = strings.TrimPrefix(ext, ".")
	}
	return strings.Join(exts, ", ")
}

// validateMedia checks that path exists and has a supported extension.
func validateMedia(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if !audio.IsSupported(path) {
		return fmt.Errorf("unsupported format %q (supported: %s): %w",
			strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")), supportedFormatsList(), ErrUnsupportedFormat)
	}
	return nil
}

// transcribeOptions holds validated options for the transcribe command.
type transcribeOptions struct {
	input  string
	audio  audioFlags
	output outputFlags
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Compress a recording and transcribe it",
		Long: `Extract the audio track of a recording, compress it under the upload
ceiling, and transcribe it with OpenAI.

The bitrate is derived from the recording's duration so the compressed file
fits the ceiling. The transcript is written to <name>_transcript.txt.

Supported formats: ` + supportedFormatsList(),
		Example: `  minutes transcribe standup.mp4
  minutes transcribe interview.m4a -l fr --prompt "Ana, Rui, OKR"
  minutes transcribe all-hands.mkv --output-dir ~/minutes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return runTranscribe(cmd.Context(), env, opts)
		},
	}

	opts.audio.register(cmd)
	cmd.Flags().StringVar(&opts.output.outputDir, "output-dir", "", "Directory for output files (default: config output-dir, then current directory)")
	cmd.Flags().StringVar(&opts.output.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	return cmd
}

// runTranscribe executes the transcription pipeline.
// Validation order: file -> format -> config -> output -> API key.
func runTranscribe(ctx context.Context, env *Env, opts transcribeOptions) (err error) {
	// === VALIDATION (fail-fast) ===

	if err := validateMedia(opts.input); err != nil {
		return err
	}
	s, err := resolveSettings(env, summaryFlags{}, opts.output)
	if err != nil {
		return err
	}
	output := config.ResolveOutputPath("", s.outputDir, deriveOutputName(opts.input, transcriptSuffix))
	if err := ensureAbsent(output); err != nil {
		return err
	}
	key, err := apiKey(env)
	if err != nil {
		return err
	}

	runID := env.NewRunID()
	logger := env.Logger.With(slog.String("run_id", runID))
	acct := newAccounting(env, runID, opts.input, s, logger)
	defer func() { err = finish(env, acct, err) }()

	// === TRANSCRIPTION ===

	transcript, err := transcribeMedia(ctx, env, opts.input, opts.audio, key, acct, logger)
	if err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	if err := writeFileAtomic(output, transcript+"\n"); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Transcript: %s\n", output)
	return nil
}

// transcribeMedia resolves FFmpeg, prepares the upload artifact and
// transcribes it. The artifact is removed before returning.
func transcribeMedia(ctx context.Context, env *Env, src string, af audioFlags, key string, acct *accounting, logger *slog.Logger) (string, error) {
	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath, logger)

	preparer, err := env.PreparerFactory.NewPreparer(ffmpegPath, af.targetMB, af.margin, logger)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(env.Stderr, "Preparing audio from %s...\n", src)
	artifact, err := preparer.Prepare(ctx, src)
	if err != nil {
		return "", err
	}
	defer func() {
		if cleanupErr := artifact.Cleanup(); cleanupErr != nil {
			fmt.Fprintf(env.Stderr, "Warning: failed to remove temporary audio: %v\n", cleanupErr)
		}
	}()

	plan := artifact.Plan
	acct.observePlan(plan)
	fmt.Fprintf(env.Stderr, "Compressed %s of audio to %s at %s\n",
		format.Duration(plan.Duration), format.Size(artifact.Size), plan.Bitrate())
	if artifact.ExceedsTarget() {
		fmt.Fprintf(env.Stderr, "Warning: %s exceeds the %s target; the upload may be rejected\n",
			format.Size(artifact.Size), format.Size(plan.TargetBytes))
	}

	fmt.Fprintln(env.Stderr, "Transcribing...")
	transcriber := env.TranscriberFactory.NewTranscriber(key, logger)
	text, err := transcriber.Transcribe(ctx, artifact.Path, transcribe.Options{
		Prompt:   af.prompt,
		Language: af.language,
	})
	if err != nil {
		return "", err
	}
	fmt.Fprintln(env.Stderr, "Transcription complete")
	return text, nil
}

// finish flushes accounting after a run. A flush failure is returned only
// when the run itself succeeded.
func finish(env *Env, acct *accounting, runErr error) error {
	flushErr := acct.flush()
	if flushErr == nil {
		return runErr
	}
	if runErr != nil {
		fmt.Fprintf(env.Stderr, "Warning: %v\n", flushErr)
		return runErr
	}
	return flushErr
}
