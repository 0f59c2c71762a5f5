package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/watch"
)

// watchOptions holds validated options for the watch command.
type watchOptions struct {
	dir     string
	settle  time.Duration
	audio   audioFlags
	summary summaryFlags
	output  outputFlags
}

// WatchCmd creates the watch command.
// The env parameter provides injectable dependencies for testing.
func WatchCmd(env *Env) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Write minutes for every recording dropped into a directory",
		Long: `Watch a directory and run the full pipeline on each new recording.

A file is processed once it has not been written to for the settle delay.
Recordings are processed one at a time; a failed recording is logged and
watching continues. Files already present are ignored.

Outputs go to the watched directory unless --output-dir or the output-dir
setting says otherwise. Press Ctrl+C to stop.`,
		Example: `  minutes watch ~/Recordings
  minutes watch ~/Recordings --settle 10s -p 4 --ledger ~/minutes.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.dir = args[0]
			return runWatch(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.settle, "settle", watch.DefaultSettle, "Quiet period before a new file is processed")
	opts.audio.register(cmd)
	opts.summary.register(cmd)
	opts.output.register(cmd)

	return cmd
}

// runWatch validates the setup once, then blocks until ctx is canceled.
func runWatch(ctx context.Context, env *Env, opts watchOptions) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}
	if opts.output.outputDir == "" && cfg.OutputDir == "" {
		opts.output.outputDir = opts.dir
	}
	if _, err := resolveSettings(env, opts.summary, opts.output); err != nil {
		return err
	}
	if _, err := apiKey(env); err != nil {
		return err
	}
	if _, err := env.FFmpegResolver.Resolve(ctx); err != nil {
		return err
	}

	handle := func(ctx context.Context, path string) error {
		fmt.Fprintf(env.Stderr, "\nNew recording: %s\n", path)
		return runRun(ctx, env, runOptions{
			input:   path,
			audio:   opts.audio,
			summary: opts.summary,
			output:  opts.output,
		})
	}

	w, err := watch.New(opts.dir, handle,
		watch.WithSettle(opts.settle),
		watch.WithFilter(audio.IsSupported),
		watch.WithLogger(env.Logger.With(slog.String("component", "watch"))),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Watching %s, settle %s (Ctrl+C to stop)\n", w.Dir(), opts.settle)
	if err := w.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintln(env.Stderr, "Stopped watching")
	return nil
}
