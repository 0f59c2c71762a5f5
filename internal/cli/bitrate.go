package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/format"
)

// bitrateOptions holds validated options for the bitrate command.
type bitrateOptions struct {
	input    string
	duration time.Duration
	audio    audioFlags
}

// BitrateCmd creates the bitrate command.
// The env parameter provides injectable dependencies for testing.
func BitrateCmd(env *Env) *cobra.Command {
	var (
		opts     bitrateOptions
		duration string
	)

	cmd := &cobra.Command{
		Use:   "bitrate [media-file]",
		Short: "Show the compression bitrate for a duration or recording",
		Long: `Compute the audio bitrate that keeps a recording under the upload ceiling.

Give either a duration with --duration, or a media file whose duration is
probed with FFmpeg. The bitrate is printed to stdout; the plan details go
to stderr.`,
		Example: `  minutes bitrate --duration 600
  minutes bitrate --duration 1h30m --target-mb 10
  minutes bitrate standup.mp4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}
			if (opts.input == "") == (duration == "") {
				return fmt.Errorf("give either a media file or --duration: %w", ErrInvalidDuration)
			}
			if duration != "" {
				d, err := parseDuration(duration)
				if err != nil {
					return err
				}
				opts.duration = d
			}
			return runBitrate(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVarP(&duration, "duration", "d", "", "Recording duration, in seconds or as 1h30m")
	opts.audio.registerSizing(cmd)

	return cmd
}

// runBitrate prints the compression plan for the given duration or media file.
func runBitrate(ctx context.Context, env *Env, opts bitrateOptions) error {
	d := opts.duration
	if opts.input != "" {
		if err := validateMedia(opts.input); err != nil {
			return err
		}
		ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
		if err != nil {
			return err
		}
		preparer, err := env.PreparerFactory.NewPreparer(ffmpegPath, opts.audio.targetMB, opts.audio.margin, env.Logger)
		if err != nil {
			return err
		}
		d, err = preparer.Probe(ctx, opts.input)
		if err != nil {
			return err
		}
	}

	plan, err := audio.PlanFor(d, audio.WithTargetSizeMB(opts.audio.targetMB), audio.WithMargin(opts.audio.margin))
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, plan.Bitrate())
	fmt.Fprintf(env.Stderr, "Duration:  %s\n", format.Duration(plan.Duration))
	fmt.Fprintf(env.Stderr, "Encoding:  mp3, %d Hz, %d channel(s)\n", plan.SampleRateHz, plan.Channels)
	fmt.Fprintf(env.Stderr, "Estimated: %s (target %s)\n", format.Size(plan.EstimatedBytes()), format.Size(plan.TargetBytes))
	if plan.FloorHit() {
		fmt.Fprintf(env.Stderr, "Warning: bitrate floor of %dk applied; the file will exceed the target\n", audio.MinBitrateKbps)
	}
	return nil
}
