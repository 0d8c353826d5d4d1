package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/droidops/internal/android"
	"github.com/blackwell-systems/droidops/internal/audit"
	"github.com/blackwell-systems/droidops/internal/config"
	"github.com/blackwell-systems/droidops/internal/output"
	"github.com/blackwell-systems/droidops/internal/store"
	"github.com/blackwell-systems/droidops/internal/watcher"
)

var permsCmd = &cobra.Command{
	Use:     "perms",
	Aliases: []string{"appops"},
	Short:   "Allow the install-packages app-op for apps that declare it",
	Long: `Scan installed packages and allow the REQUEST_INSTALL_PACKAGES app-op for
every package whose manifest declares the permission.

Third-party packages are scanned; if the device reports none, every installed
package is scanned instead. For each package:
  • the manifest is checked with 'dumpsys package', then 'pm dump'
  • packages without the permission are skipped
  • 'appops get' is queried; packages already allowed are left alone
  • otherwise 'appops set ... allow' is issued and verified

Each package ends in exactly one state (already allowed, set, set failed,
skipped, check failed) and a summary is printed at the end. Failures for one
package never stop the sweep.`,
	Example: `  # Run the sweep
  droidops perms

  # Only print the summary
  droidops perms --quiet

  # Keep running and re-sweep whenever an app is installed
  droidops perms --watch`,
	Args: cobra.NoArgs,
	RunE: runPerms,
}

func init() {
	registerPermsFlags(permsCmd.Flags())
}

func registerPermsFlags(fs *pflag.FlagSet) {
	fs.String("permission", "", "manifest permission marker to look for (default REQUEST_INSTALL_PACKAGES)")
	fs.String("op", "", "app-op to allow (default REQUEST_INSTALL_PACKAGES)")
	fs.Bool("quiet", false, "suppress per-package progress lines")
	fs.Bool("watch", false, "re-run the sweep whenever the package database changes")
	fs.String("watch-file", watcher.DefaultPackagesFile, "package database file to watch")
}

// permsOptions is the resolved perms configuration.
type permsOptions struct {
	Permission string
	Op         string
	Quiet      bool
	Watch      bool
	WatchFile  string
}

// resolvePermsOptions applies flags over the config file over defaults.
func resolvePermsOptions(fs *pflag.FlagSet, file *config.File) (permsOptions, error) {
	opts := permsOptions{
		Permission: file.String(config.KeyPermission, android.DefaultPermissionMarker),
		Op:         file.String(config.KeyOp, audit.DefaultOp),
	}

	var err error
	if fs.Changed("permission") {
		if opts.Permission, err = fs.GetString("permission"); err != nil {
			return opts, err
		}
	}
	if fs.Changed("op") {
		if opts.Op, err = fs.GetString("op"); err != nil {
			return opts, err
		}
	}
	if opts.Quiet, err = fs.GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.Watch, err = fs.GetBool("watch"); err != nil {
		return opts, err
	}
	if opts.WatchFile, err = fs.GetString("watch-file"); err != nil {
		return opts, err
	}

	if opts.Permission == "" || opts.Op == "" {
		return opts, fmt.Errorf("permission and op must not be empty")
	}
	return opts, nil
}

func runPerms(cmd *cobra.Command, args []string) error {
	file, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := resolvePermsOptions(cmd.Flags(), file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	client := android.NewClient(newRunner())

	runSweep(out, client, opts)

	if !opts.Watch {
		return nil
	}
	return watchPackages(out, client, opts)
}

// runSweep runs one audit, streaming progress to out, and records it.
func runSweep(out io.Writer, client *android.Client, opts permsOptions) *audit.Report {
	hist := beginHistory(store.KindPerms, fmt.Sprintf("op %s", opts.Op))

	spinner := output.NewSpinner("Listing installed packages")
	spinner.SetWriter(out)
	spinner.Start()

	var progress *output.ProgressBar
	hooks := audit.Hooks{
		OnListed: func(pkgs []string, fallback bool) {
			msg := fmt.Sprintf("✓ %d packages found", len(pkgs))
			if fallback {
				msg = fmt.Sprintf("⚠ No third-party packages reported; scanning all %d packages", len(pkgs))
			}
			spinner.StopWithMessage(msg)
			if opts.Quiet {
				progress = output.NewProgress(len(pkgs), "packages")
				progress.SetWriter(out)
			}
		},
		OnSetAttempt: func(pkg string) {
			if !opts.Quiet {
				fmt.Fprintln(out, output.FormatSetAttempt(pkg))
			}
		},
		OnOutcome: func(o audit.Outcome) {
			if progress != nil {
				progress.Increment()
				return
			}
			fmt.Fprintln(out, output.FormatOutcome(o))
		},
	}

	report := audit.New(client, opts.Permission, opts.Op, hooks).Run()
	if progress != nil {
		progress.Finish()
	}

	fmt.Fprint(out, output.RenderAuditSummary(report))

	results := make([]store.AuditResult, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		results = append(results, store.AuditResult{Package: o.Package, State: o.State.String(), Reason: o.Reason})
	}
	hist.auditResults(results)
	hist.finish(store.StatusOK, summarizeReport(report))

	return report
}

// summarizeReport is the one-line run detail stored in history.
func summarizeReport(r *audit.Report) string {
	return fmt.Sprintf("%d packages: %d allowed, %d set, %d set-failed, %d skipped, %d check-failed",
		r.Total,
		r.Count(audit.AlreadyAllowed),
		r.Count(audit.SetSuccess),
		r.Count(audit.SetFailed),
		r.Count(audit.SkippedNoPermission),
		r.Count(audit.CheckFailed))
}

// watchPackages re-runs the sweep on package database changes until
// SIGINT or SIGTERM.
func watchPackages(out io.Writer, client *android.Client, opts permsOptions) error {
	w, err := watcher.New(opts.WatchFile, watcher.DefaultDebounce, func() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Package database changed, sweeping again...")
		runSweep(out, client, opts)
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(out, "\nWatching %s (press Ctrl+C to stop)...\n", opts.WatchFile)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	fmt.Fprintf(out, "\nReceived signal %v, shutting down...\n", sig)

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	return nil
}
