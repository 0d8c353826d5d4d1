package store

import "time"

// Run kinds.
const (
	KindPerms = "perms"
	KindZram  = "zram"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Run is one recorded invocation of an operational command.
type Run struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt *time.Time // nil while running or if the process died
	Status     string
	Detail     string
}

// AuditResult is the recorded outcome for one package in a perms run.
type AuditResult struct {
	RunID   string
	Package string
	State   string
	Reason  string
}
