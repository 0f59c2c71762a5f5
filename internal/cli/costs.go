package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alnah/go-minutes/internal/config"
	"github.com/alnah/go-minutes/internal/format"
	"github.com/alnah/go-minutes/internal/ledger"
)

// CostsCmd creates the costs command: per-run totals from the ledger.
// The env parameter provides injectable dependencies for testing.
func CostsCmd(env *Env) *cobra.Command {
	var (
		ledgerPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show recorded model costs per run",
		Long: `Show the cost ledger, one line per run, newest first.

The ledger is filled by run, summarize and transcribe when --ledger or the
ledger setting points to a SQLite file.`,
		Example: `  minutes costs
  minutes costs --limit 5 --ledger ~/minutes.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCosts(cmd.Context(), env, ledgerPath, limit)
		},
	}

	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite cost ledger (default: config ledger)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")

	return cmd
}

func runCosts(ctx context.Context, env *Env, ledgerPath string, limit int) error {
	if ledgerPath == "" {
		cfg, err := env.ConfigLoader.Load()
		if err != nil {
			return err
		}
		ledgerPath = cfg.Ledger
	}
	if ledgerPath == "" {
		return fmt.Errorf("%w (use --ledger or: minutes config set ledger <path>)", ErrLedgerNotConfigured)
	}

	l, err := ledger.Open(config.ExpandPath(ledgerPath))
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	runs, err := l.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(env.Stderr, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tSOURCE\tCALLS\tPROMPT\tCOMPLETION\tCOST")
	var total float64
	for _, r := range runs {
		total += r.Amount
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.Started.Local().Format("2006-01-02 15:04"),
			shortRunID(r.RunID),
			filepath.Base(r.Source),
			r.Calls, r.PromptTokens, r.CompletionTokens,
			format.USD(r.Amount),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Total: %s over %d run(s)\n", format.USD(total), len(runs))
	return nil
}

// shortRunID keeps the first UUID group.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
