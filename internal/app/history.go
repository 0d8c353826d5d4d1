package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidops/internal/output"
	"github.com/blackwell-systems/droidops/internal/store"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show previous perms and zram runs",
		Long: `List recorded runs, newest first.

Each perms or zram invocation is recorded with its start time, duration,
final status and a one-line summary. Use 'droidops history show <id>' to see
the per-package results of a perms run. An ID prefix is enough as long as it
is unique.`,
		Example: `  # Last 20 runs
  droidops history

  # Last 5 runs
  droidops history --limit 5

  # Per-package results of one run
  droidops history show 3f2a9c1e`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	historyShowCmd = &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the recorded results of one run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	historyCmd.AddCommand(historyShowCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", historyLimit)
	}

	st, err := openStore()
	if err != nil {
		return historyErr(cmd, err)
	}
	defer st.Close()

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return historyErr(cmd, err)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderRunTable(runs))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return historyErr(cmd, err)
	}
	defer st.Close()

	run, err := st.GetRun(args[0])
	if err != nil {
		return historyErr(cmd, err)
	}

	results, err := st.GetAuditResults(run.ID)
	if err != nil {
		return fmt.Errorf("failed to get results for run %s: %w", output.ShortID(run.ID), err)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderAuditResults(run, results))
	return nil
}

// historyErr turns a missing database into a friendly message instead of
// an error exit.
func historyErr(cmd *cobra.Command, err error) error {
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'droidops perms' or 'droidops zram' to create the history database.")
		return nil
	}
	return err
}
