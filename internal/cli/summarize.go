package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/config"
)

// summarizeOptions holds validated options for the summarize command.
type summarizeOptions struct {
	input   string
	summary summaryFlags
	output  outputFlags
}

// SummarizeCmd creates the summarize command (minutes from an existing transcript).
// The env parameter provides injectable dependencies for testing.
func SummarizeCmd(env *Env) *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize <transcript-file>",
		Short: "Write minutes from an existing transcript",
		Long: `Summarize a plain-text transcript into meeting minutes.

The transcript is split into chunks under the token ceiling, each chunk is
summarized, and the partial summaries are merged. The minutes are written to
<name>_summary.txt; a trailing _transcript in the name is dropped.`,
		Example: `  minutes summarize standup_transcript.txt
  minutes summarize notes.txt --chunk-size 6000 --overlap 200 -p 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return runSummarize(cmd.Context(), env, opts)
		},
	}

	opts.summary.register(cmd)
	opts.output.register(cmd)

	return cmd
}

// runSummarize executes the map-reduce pipeline on a transcript file.
func runSummarize(ctx context.Context, env *Env, opts summarizeOptions) (err error) {
	// === VALIDATION (fail-fast) ===

	// #nosec G304 -- inputPath is user-provided
	content, err := os.ReadFile(opts.input)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, opts.input)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	s, err := resolveSettings(env, opts.summary, opts.output)
	if err != nil {
		return err
	}
	output := config.ResolveOutputPath("", s.outputDir, deriveOutputName(opts.input, summarySuffix))
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

	summarizer, err := newSummarizer(env, key, s, opts.summary, acct, logger)
	if err != nil {
		return err
	}
	defer func() { err = finish(env, acct, err) }()

	// === SUMMARY ===

	return summarizeTo(ctx, env, summarizer, string(content), output)
}
