package app

import (
	"fmt"
	"io"
	"os"

	"github.com/blackwell-systems/droidops/internal/shell"
	"github.com/blackwell-systems/droidops/internal/store"
)

// newRunner builds the command runner used for device commands. Tests
// replace it with a scripted shell.Fake.
var newRunner = func() shell.Runner {
	return shell.Exec{}
}

// historyRecorder records one run. A nil recorder is valid and records
// nothing, so history problems never stop the actual work.
type historyRecorder struct {
	st    *store.Store
	runID string
	warn  io.Writer
}

// beginHistory opens the database and records the start of a run. Any
// failure is printed as a warning and yields a nil recorder.
func beginHistory(kind, detail string) *historyRecorder {
	if noHistory {
		return nil
	}

	path, err := getDBPath()
	if err != nil {
		warnHistory(err)
		return nil
	}

	st, err := store.New(path)
	if err != nil {
		warnHistory(err)
		return nil
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		warnHistory(err)
		return nil
	}

	id, err := st.BeginRun(kind, detail)
	if err != nil {
		st.Close()
		warnHistory(err)
		return nil
	}
	return &historyRecorder{st: st, runID: id, warn: os.Stderr}
}

func warnHistory(err error) {
	fmt.Fprintf(os.Stderr, "warning: run history unavailable: %v\n", err)
}

// auditResults stores per-package outcomes for the run.
func (h *historyRecorder) auditResults(results []store.AuditResult) {
	if h == nil || len(results) == 0 {
		return
	}
	for i := range results {
		results[i].RunID = h.runID
	}
	if err := h.st.InsertAuditResults(results); err != nil {
		fmt.Fprintf(h.warn, "warning: failed to record audit results: %v\n", err)
	}
}

// finish marks the run done and closes the database.
func (h *historyRecorder) finish(status, detail string) {
	if h == nil {
		return
	}
	if err := h.st.FinishRun(h.runID, status, detail); err != nil {
		fmt.Fprintf(h.warn, "warning: failed to record run: %v\n", err)
	}
	h.st.Close()
}

// openStore opens the history database for reading.
func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, store.ErrNotInitialized
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}
