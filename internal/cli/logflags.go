package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/logging"
)

// logFlags holds the persistent logging flags.
type logFlags struct {
	level  string
	format string
	file   string
}

// RegisterLogging adds --log-level, --log-format and --log-file to root and
// replaces env.Logger before any subcommand runs. Logs go to env.Stderr
// unless --log-file is set. The returned func releases the log file.
func RegisterLogging(root *cobra.Command, env *Env) (closeLog func()) {
	var (
		f      logFlags
		closer io.Closer
	)

	root.PersistentFlags().StringVar(&f.level, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&f.format, "log-format", logging.FormatText, "Log format: text, json")
	root.PersistentFlags().StringVar(&f.file, "log-file", "", "Write logs to this file, rotated at 1 MB")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger, c, err := logging.New(logging.Options{
			Level:  f.level,
			Format: f.format,
			File:   config.ExpandPath(f.file),
			Writer: env.Stderr,
		})
		if err != nil {
			return err
		}
		env.Logger, closer = logger, c
		return nil
	}

	return func() {
		if closer != nil {
			_ = closer.Close()
		}
	}
}
