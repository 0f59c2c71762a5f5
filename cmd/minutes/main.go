package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/apierr"
	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/cli"
	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/ffmpeg"
	"github.com/alnah/go-minutes/internal/logging"
	"github.com/alnah/go-minutes/internal/pricing"
	"github.com/alnah/go-minutes/internal/summarize"
	"github.com/alnah/go-minutes/internal/watch"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitAudio      = 5
	ExitRemote     = 6
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	rootCmd := &cobra.Command{
		Use:     "minutes",
		Short:   "Turn meeting recordings into transcripts and minutes",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	closeLog := cli.RegisterLogging(rootCmd, env)

	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.SummarizeCmd(env))
	rootCmd.AddCommand(cli.BitrateCmd(env))
	rootCmd.AddCommand(cli.WatchCmd(env))
	rootCmd.AddCommand(cli.CostsCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	err := rootCmd.ExecuteContext(ctx)
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

var (
	setupErrors = []error{
		cli.ErrAPIKeyMissing, cli.ErrLedgerNotConfigured,
		ffmpeg.ErrNotFound,
		config.ErrInvalidSyntax, config.ErrUnknownKey, config.ErrNotDirectory, config.ErrNotWritable,
		pricing.ErrUnknownModel, pricing.ErrInvalidRates,
		summarize.ErrInvalidCeiling, summarize.ErrInvalidChunking,
		logging.ErrInvalidOption,
		watch.ErrNotDirectory,
	}
	validationErrors = []error{
		cli.ErrFileNotFound, cli.ErrOutputExists, cli.ErrUnsupportedFormat, cli.ErrInvalidDuration,
	}
	audioErrors = []error{
		audio.ErrProbeFailed, audio.ErrTranscodeFailed, audio.ErrInvalidDuration, audio.ErrInvalidTarget,
	}
)

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case isCobraUsageError(err):
		return ExitUsage
	case isAny(err, setupErrors):
		return ExitSetup
	case isAny(err, validationErrors):
		return ExitValidation
	case isAny(err, audioErrors):
		return ExitAudio
	case apierr.IsRemote(err), errors.Is(err, summarize.ErrMalformedResponse):
		return ExitRemote
	}
	return ExitGeneral
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
