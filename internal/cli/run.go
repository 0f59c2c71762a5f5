package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/summarize"
)

// runOptions holds validated options for the run command.
type runOptions struct {
	input   string
	audio   audioFlags
	summary summaryFlags
	output  outputFlags
}

// RunCmd creates the run command: media file to transcript and minutes.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <media-file>",
		Short: "Transcribe a recording and write its minutes",
		Long: `Transcribe a recording and summarize it into meeting minutes.

The audio track is compressed under the upload ceiling and transcribed. The
transcript is split into chunks that fit the model's token ceiling, each
chunk is summarized, and the partial summaries are merged into minutes with
a summary, bullet points, decisions and outstanding tasks.

Writes <name>_transcript.txt and <name>_summary.txt, then reports the cost
of every model call.

Supported formats: ` + supportedFormatsList(),
		Example: `  minutes run standup.mp4
  minutes run all-hands.mkv -m gpt-4o-mini --ceiling 16000 --chunk-size 24000 -p 4
  minutes run retro.m4a --ledger ~/.local/share/minutes/ledger.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return runRun(cmd.Context(), env, opts)
		},
	}

	opts.audio.register(cmd)
	opts.summary.register(cmd)
	opts.output.register(cmd)

	return cmd
}

// runRun executes the full pipeline.
// Validation order: file -> format -> config -> output -> API key -> model.
func runRun(ctx context.Context, env *Env, opts runOptions) (err error) {
	// === VALIDATION (fail-fast) ===

	if err := validateMedia(opts.input); err != nil {
		return err
	}
	s, err := resolveSettings(env, opts.summary, opts.output)
	if err != nil {
		return err
	}
	transcriptPath := config.ResolveOutputPath("", s.outputDir, deriveOutputName(opts.input, transcriptSuffix))
	summaryPath := config.ResolveOutputPath("", s.outputDir, deriveOutputName(opts.input, summarySuffix))
	if err := ensureAbsent(transcriptPath, summaryPath); err != nil {
		return err
	}
	key, err := apiKey(env)
	if err != nil {
		return err
	}

	runID := env.NewRunID()
	logger := env.Logger.With(slog.String("run_id", runID))
	acct := newAccounting(env, runID, opts.input, s, logger)

	summarizer, err := newSummarizer(env, key, s, opts.summary, acct, logger)
	if err != nil {
		return err
	}
	defer func() { err = finish(env, acct, err) }()

	// === TRANSCRIPTION ===

	transcript, err := transcribeMedia(ctx, env, opts.input, opts.audio, key, acct, logger)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(transcriptPath, transcript+"\n"); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Transcript: %s\n", transcriptPath)

	// === SUMMARY ===

	return summarizeTo(ctx, env, summarizer, transcript, summaryPath)
}

// newSummarizer builds a summarizer wired to progress output and accounting.
func newSummarizer(env *Env, key string, s settings, sf summaryFlags, acct *accounting, logger *slog.Logger) (Summarizer, error) {
	opts := append(summarizerOptions(s.model, sf, logger),
		summarize.WithProgress(defaultProgressCallback(env.Stderr)),
		summarize.WithCallObserver(acct.observeCall),
	)
	return env.SummarizerFactory.NewSummarizer(key, s.rates, opts...)
}

// summarizeTo runs the map-reduce pipeline and writes the minutes to path.
// Costs are printed even when the run fails part way. A run whose merge
// response could not be decoded writes no file and still succeeds.
func summarizeTo(ctx context.Context, env *Env, s Summarizer, transcript, path string) error {
	fmt.Fprintf(env.Stderr, "Summarizing with %s...\n", s.Model())
	res, err := s.Summarize(ctx, transcript)
	printCosts(env.Stderr, res)
	if err != nil {
		return err
	}

	if res.Summary == nil {
		fmt.Fprintln(env.Stderr, "Warning: no summary produced, nothing written")
		return nil
	}
	if err := writeFileAtomic(path, res.Summary.String()); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Summary: %s\n", path)
	return nil
}
