// Package output provides terminal output utilities for droidops.
//
// This package includes:
//   - Per-package progress lines and the final audit summary
//   - Tables for run history and recorded audit results
//   - The zram device status report
//   - Progress bars and spinners for long-running sweeps
//
// Colour is applied with fatih/color only when stdout is a terminal and
// NO_COLOR is unset, so redirected output stays plain.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/droidops/internal/audit"
	"github.com/blackwell-systems/droidops/internal/store"
	"github.com/blackwell-systems/droidops/internal/zram"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	dimColor  = color.New(color.FgHiBlack)
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in c if color is enabled, otherwise returns it as is.
func colorize(c *color.Color, text string) string {
	if !IsColorEnabled() {
		return text
	}
	c.EnableColor()
	return c.Sprint(text)
}

// FormatSetAttempt is printed right before a package's app-op is changed.
func FormatSetAttempt(pkg string) string {
	return fmt.Sprintf("SET allow : %s", pkg)
}

// FormatOutcome renders the progress line for a terminal state.
func FormatOutcome(o audit.Outcome) string {
	switch o.State {
	case audit.SkippedNoPermission:
		return colorize(dimColor, "SKIP (no manifest permission)") + " : " + o.Package
	case audit.AlreadyAllowed:
		return colorize(okColor, "ALREADY allowed") + " : " + o.Package
	case audit.SetSuccess:
		return colorize(okColor, "OK") + fmt.Sprintf(" : %s is now allowed", o.Package)
	case audit.SetFailed:
		return colorize(failColor, "FAIL") + fmt.Sprintf(": %s : %s", reasonOr(o.Reason, "appops set failed"), o.Package)
	case audit.CheckFailed:
		return colorize(warnColor, "WARN") + fmt.Sprintf(": %s : %s", reasonOr(o.Reason, "appops get failed"), o.Package)
	}
	return fmt.Sprintf("%s : %s", o.State, o.Package)
}

func reasonOr(reason, def string) string {
	if reason == "" {
		return def
	}
	return reason
}

// RenderAuditSummary renders the end-of-sweep report. Package lists are
// shown only for non-empty buckets.
func RenderAuditSummary(r *audit.Report) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("─", 40))
	sb.WriteString("\n")
	if r.UsedFallback {
		sb.WriteString("⚠ No third-party packages found; the full package list was used.\n")
	}
	sb.WriteString(fmt.Sprintf("Total packages:              %d\n", r.Total))
	sb.WriteString(fmt.Sprintf("Declaring the permission:    %d\n", r.Checked()))
	writeBucket(&sb, " - Already allowed:", r, audit.AlreadyAllowed, "Already allowed packages:")
	writeBucket(&sb, " - Set successfully:", r, audit.SetSuccess, "Newly allowed packages:")
	writeBucket(&sb, " - Set failed:", r, audit.SetFailed, "Failed packages:")
	writeBucket(&sb, "Skipped (no permission):", r, audit.SkippedNoPermission, "Packages without the permission:")
	writeBucket(&sb, "Check failed:", r, audit.CheckFailed, "Packages that could not be checked:")

	return sb.String()
}

func writeBucket(sb *strings.Builder, label string, r *audit.Report, s audit.State, listTitle string) {
	sb.WriteString(fmt.Sprintf("%-29s%d\n", label, r.Count(s)))
	pkgs := r.Packages(s)
	if len(pkgs) == 0 {
		return
	}
	sb.WriteString("   " + listTitle + "\n")
	for _, pkg := range pkgs {
		sb.WriteString("     - " + pkg + "\n")
	}
}

// RenderRunTable renders recorded runs, newest first.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-6s %-8s %-16s %-9s %s\n",
		"ID", "Kind", "Status", "Started", "Duration", "Detail"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("%-10s %-6s %-8s %-16s %-9s %s\n",
			ShortID(run.ID),
			run.Kind,
			colorize(statusColor(run.Status), fmt.Sprintf("%-8s", run.Status)),
			formatRelativeTime(run.StartedAt),
			formatDuration(run),
			truncate(run.Detail, 40)))
	}
	return sb.String()
}

// ShortID returns the first 8 characters of a run ID, enough for
// `droidops history show`.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func statusColor(status string) *color.Color {
	switch status {
	case store.StatusOK:
		return okColor
	case store.StatusFailed:
		return failColor
	default:
		return warnColor
	}
}

// RenderAuditResults renders the outcomes recorded for one perms run.
func RenderAuditResults(run *store.Run, results []*store.AuditResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run %s (%s, %s)\n", run.ID, run.Kind, run.Status))
	sb.WriteString(fmt.Sprintf("Started %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05")))
	if run.Detail != "" {
		sb.WriteString(run.Detail + "\n")
	}
	sb.WriteString("\n")

	if len(results) == 0 {
		sb.WriteString("No package results recorded.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%-40s %-16s %s\n", "Package", "State", "Reason"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")
	for _, r := range results {
		state := colorize(resultStateColor(r.State), fmt.Sprintf("%-16s", r.State))
		sb.WriteString(fmt.Sprintf("%-40s %s %s\n", truncate(r.Package, 40), state, r.Reason))
	}
	return sb.String()
}

// resultStateColor picks the colour for a stored audit state. Names that are
// not audit states are dimmed.
func resultStateColor(name string) *color.Color {
	s, err := audit.ParseState(name)
	if err != nil {
		return dimColor
	}
	switch s {
	case audit.AlreadyAllowed, audit.SetSuccess:
		return okColor
	case audit.SetFailed:
		return failColor
	case audit.CheckFailed:
		return warnColor
	default:
		return dimColor
	}
}

// RenderZramStatus renders a device status snapshot.
func RenderZramStatus(st *zram.Status) string {
	var sb strings.Builder

	if !st.Exists {
		sb.WriteString(fmt.Sprintf("%s: device not present\n", st.Device))
	} else {
		sb.WriteString(fmt.Sprintf("Device:       %s\n", st.Device))
		sb.WriteString(fmt.Sprintf("Disk size:    %s\n", formatBytes(st.DiskSize)))
		algo := st.Algorithm
		if algo == "" {
			algo = "unknown"
		}
		sb.WriteString(fmt.Sprintf("Algorithm:    %s", algo))
		if len(st.Available) > 0 {
			sb.WriteString(fmt.Sprintf(" (available: %s)", strings.Join(st.Available, " ")))
		}
		sb.WriteString("\n")
		if st.Streams > 0 {
			sb.WriteString(fmt.Sprintf("Streams:      %d\n", st.Streams))
		}
		if st.MemLimit > 0 {
			sb.WriteString(fmt.Sprintf("Memory limit: %s\n", formatBytes(st.MemLimit)))
		}
		if st.SwapActive {
			sb.WriteString(fmt.Sprintf("Swap:         %s (%s used)\n", colorize(okColor, "active"), formatBytes(st.SwapUsed)))
		} else {
			sb.WriteString(fmt.Sprintf("Swap:         %s\n", colorize(warnColor, "inactive")))
		}
	}

	if st.Host.TotalRAM > 0 {
		sb.WriteString(fmt.Sprintf("Host RAM:     %s total, %s free\n", formatBytes(st.Host.TotalRAM), formatBytes(st.Host.FreeRAM)))
		sb.WriteString(fmt.Sprintf("Host swap:    %s total, %s free\n", formatBytes(st.Host.TotalSwap), formatBytes(st.Host.FreeSwap)))
	}
	return sb.String()
}

// formatBytes converts bytes to a human-readable IEC size.
func formatBytes(n uint64) string {
	if n == 0 {
		return "0 B"
	}
	return humanize.IBytes(n)
}

func formatDuration(run *store.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	d := run.FinishedAt.Sub(run.StartedAt)
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

// formatRelativeTime converts a timestamp to "5 minutes ago" style text.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Local().Format("2006-01-02")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate truncates a string to maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
