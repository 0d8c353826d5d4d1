package app

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/droidops/internal/store"
)

// seedHistory creates a database with one finished perms run.
func seedHistory(t *testing.T) (path, runID string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "droidops.db")

	st, err := store.New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if err := st.CreateSchema(); err != nil {
		t.Fatal(err)
	}

	runID, err = st.BeginRun(store.KindPerms, "op REQUEST_INSTALL_PACKAGES")
	if err != nil {
		t.Fatal(err)
	}
	results := []store.AuditResult{
		{RunID: runID, Package: "com.a", State: "skipped"},
		{RunID: runID, Package: "com.b", State: "set-failed", Reason: "appops set failed: exit status 255"},
	}
	if err := st.InsertAuditResults(results); err != nil {
		t.Fatal(err)
	}
	if err := st.FinishRun(runID, store.StatusOK, "2 packages"); err != nil {
		t.Fatal(err)
	}
	return path, runID
}

func TestHistoryCommand_NoDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	out, err := executeCommand(t, "history", "--db", path)
	if err != nil {
		t.Fatalf("history should not fail without a database: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestHistoryCommand_ListsRuns(t *testing.T) {
	path, runID := seedHistory(t)

	out, err := executeCommand(t, "history", "--db", path)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	for _, want := range []string{runID[:8], "perms", "ok", "2 packages"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryCommand_InvalidLimit(t *testing.T) {
	path, _ := seedHistory(t)

	if _, err := executeCommand(t, "history", "--db", path, "--limit", "0"); err == nil {
		t.Error("expected error for --limit 0")
	}
}

func TestHistoryShowCommand(t *testing.T) {
	path, runID := seedHistory(t)

	out, err := executeCommand(t, "history", "show", runID[:8], "--db", path)
	if err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	for _, want := range []string{runID, "com.a", "skipped", "com.b", "appops set failed: exit status 255"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryShowCommand_UnknownRun(t *testing.T) {
	path, _ := seedHistory(t)

	_, err := executeCommand(t, "history", "show", "ffffffff-0000", "--db", path)
	if err == nil {
		t.Fatal("expected error for unknown run")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHistoryShowCommand_RequiresID(t *testing.T) {
	if _, err := executeCommand(t, "history", "show"); err == nil {
		t.Error("expected error without a run ID")
	}
}
