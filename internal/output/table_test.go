package output

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/blackwell-systems/droidops/internal/audit"
	"github.com/blackwell-systems/droidops/internal/store"
	"github.com/blackwell-systems/droidops/internal/zram"
)

func TestFormatOutcome(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		outcome audit.Outcome
		want    string
	}{
		{audit.Outcome{Package: "com.a", State: audit.SkippedNoPermission}, "SKIP (no manifest permission) : com.a"},
		{audit.Outcome{Package: "com.a", State: audit.AlreadyAllowed}, "ALREADY allowed : com.a"},
		{audit.Outcome{Package: "com.a", State: audit.SetSuccess}, "OK : com.a is now allowed"},
		{audit.Outcome{Package: "com.a", State: audit.SetFailed}, "FAIL: appops set failed : com.a"},
		{audit.Outcome{Package: "com.a", State: audit.SetFailed, Reason: "verification failed"}, "FAIL: verification failed : com.a"},
		{audit.Outcome{Package: "com.a", State: audit.CheckFailed}, "WARN: appops get failed : com.a"},
	}

	for _, tt := range tests {
		if got := FormatOutcome(tt.outcome); got != tt.want {
			t.Errorf("FormatOutcome(%v) = %q, want %q", tt.outcome.State, got, tt.want)
		}
	}

	if got := FormatSetAttempt("com.a"); got != "SET allow : com.a" {
		t.Errorf("FormatSetAttempt() = %q", got)
	}
}

func TestRenderAuditSummary(t *testing.T) {
	r := &audit.Report{Total: 2}
	r.Add(audit.Outcome{Package: "com.a", State: audit.SkippedNoPermission})
	r.Add(audit.Outcome{Package: "com.b", State: audit.SetSuccess})

	out := RenderAuditSummary(r)

	wantLines := []string{
		"Total packages:              2",
		"Declaring the permission:    1",
		" - Already allowed:          0",
		" - Set successfully:         1",
		" - Set failed:               0",
		"Skipped (no permission):     1",
		"Check failed:                0",
		"     - com.a",
		"     - com.b",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line) {
			t.Errorf("summary missing %q:\n%s", line, out)
		}
	}
	if strings.Contains(out, "Already allowed packages:") {
		t.Error("empty buckets should not list packages")
	}
	if strings.Contains(out, "full package list") {
		t.Error("fallback note shown without fallback")
	}
}

func TestRenderAuditSummary_Fallback(t *testing.T) {
	out := RenderAuditSummary(&audit.Report{UsedFallback: true})
	if !strings.Contains(out, "full package list was used") {
		t.Errorf("summary should mention the fallback:\n%s", out)
	}
}

func TestRenderRunTable(t *testing.T) {
	if got := RenderRunTable(nil); got != "No runs recorded.\n" {
		t.Errorf("RenderRunTable(nil) = %q", got)
	}

	started := time.Now().Add(-2 * time.Hour)
	finished := started.Add(1500 * time.Millisecond)
	runs := []*store.Run{
		{ID: "3f2a9c1e-0000-4000-8000-000000000000", Kind: store.KindPerms, Status: store.StatusOK, StartedAt: started, FinishedAt: &finished, Detail: "2 packages"},
		{ID: "abcd", Kind: store.KindZram, Status: store.StatusRunning, StartedAt: started},
	}

	out := RenderRunTable(runs)
	for _, want := range []string{"3f2a9c1e ", "perms", "2 hours ago", "1.5s", "2 packages", "abcd", "zram", "running"} {
		if !strings.Contains(out, want) {
			t.Errorf("run table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "3f2a9c1e-0000") {
		t.Error("run IDs should be shortened")
	}
}

func TestRenderAuditResults(t *testing.T) {
	run := &store.Run{ID: "id-1", Kind: store.KindPerms, Status: store.StatusOK, StartedAt: time.Now()}

	empty := RenderAuditResults(run, nil)
	if !strings.Contains(empty, "No package results recorded.") {
		t.Errorf("unexpected output:\n%s", empty)
	}

	out := RenderAuditResults(run, []*store.AuditResult{
		{RunID: "id-1", Package: "com.a", State: "set-failed", Reason: "appops set failed"},
	})
	for _, want := range []string{"Run id-1", "com.a", "set-failed", "appops set failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit results missing %q:\n%s", want, out)
		}
	}
}

func TestResultStateColor(t *testing.T) {
	tests := []struct {
		state string
		want  *color.Color
	}{
		{"already-allowed", okColor},
		{"set-success", okColor},
		{"set-failed", failColor},
		{"check-failed", warnColor},
		{"skipped", dimColor},
		{"removed", dimColor},
		{"", dimColor},
	}
	for _, tt := range tests {
		if got := resultStateColor(tt.state); got != tt.want {
			t.Errorf("resultStateColor(%q) returned the wrong colour", tt.state)
		}
	}
}

func TestRenderAuditResults_StatesPadded(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	run := &store.Run{ID: "id-2", Kind: store.KindPerms, Status: store.StatusOK, StartedAt: time.Now()}

	out := RenderAuditResults(run, []*store.AuditResult{
		{RunID: "id-2", Package: "com.b", State: "set-success"},
		{RunID: "id-2", Package: "com.c", State: "legacy-state", Reason: "kept"},
	})
	for _, want := range []string{"set-success      ", "legacy-state     kept"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit results missing %q:\n%s", want, out)
		}
	}
}

func TestRenderZramStatus(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := RenderZramStatus(&zram.Status{Device: "zram1"})
	if !strings.Contains(out, "zram1: device not present") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out = RenderZramStatus(&zram.Status{
		Device:     "zram0",
		Exists:     true,
		DiskSize:   512 * 1024 * 1024,
		Algorithm:  "zstd",
		Available:  []string{"lz4", "zstd"},
		Streams:    4,
		SwapActive: true,
		SwapUsed:   2 * 1024 * 1024,
		Host:       zram.HostMemory{TotalRAM: 4 << 30, FreeRAM: 1 << 30},
	})
	for _, want := range []string{"512 MiB", "zstd (available: lz4 zstd)", "Streams:      4", "active (2.0 MiB used)", "Host RAM:     4.0 GiB total"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"com.example.verylongpackage", 10, "com.exa..."},
		{"abcdef", 3, "abc"},
		{"überwachung-app", 8, "überw..."},
		{"日本語のアプリ", 5, "日本..."},
		{"日本語", 3, "日本語"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
		if got := truncate(tt.in, tt.maxLen); !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tt.in, tt.maxLen, got)
		}
	}
}
