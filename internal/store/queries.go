package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run operations

// BeginRun records the start of a run and returns its ID.
func (s *Store) BeginRun(kind, detail string) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO runs (id, kind, started_at, status, detail)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, id, kind, time.Now().UTC().Format(timeFormat), StatusRunning, detail)
	if err != nil {
		return "", wrapQueryErr("failed to begin run", err)
	}
	return id, nil
}

// FinishRun marks a run as finished with the given status and detail.
func (s *Store) FinishRun(id, status, detail string) error {
	query := `UPDATE runs SET finished_at = ?, status = ?, detail = ? WHERE id = ?`
	result, err := s.db.Exec(query, time.Now().UTC().Format(timeFormat), status, detail, id)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to finish run %s", id), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun retrieves a run by ID or by a unique ID prefix. The prefix is
// compared literally, so LIKE wildcards have no special meaning.
func (s *Store) GetRun(idOrPrefix string) (*Run, error) {
	if idOrPrefix == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}
	query := `
		SELECT id, kind, started_at, finished_at, status, detail
		FROM runs
		WHERE substr(id, 1, length(?)) = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 2
	`
	rows, err := s.db.Query(query, idOrPrefix, idOrPrefix)
	if err != nil {
		return nil, wrapQueryErr("failed to get run", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("run %s not found", idOrPrefix)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("run ID prefix %s is ambiguous", idOrPrefix)
	}
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, kind, started_at, finished_at, status, detail
		FROM runs
		ORDER BY started_at DESC, rowid DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapQueryErr("failed to list runs", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt string
		var finishedAt, detail sql.NullString

		if err := rows.Scan(&run.ID, &run.Kind, &startedAt, &finishedAt, &run.Status, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		t, err := time.Parse(timeFormat, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at for %s: %w", run.ID, err)
		}
		run.StartedAt = t

		if finishedAt.Valid {
			ft, err := time.Parse(timeFormat, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse finished_at for %s: %w", run.ID, err)
			}
			run.FinishedAt = &ft
		}
		run.Detail = detail.String

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Audit result operations

// InsertAuditResults records package outcomes for a run in one transaction.
func (s *Store) InsertAuditResults(results []AuditResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`
		INSERT INTO audit_results (run_id, package, state, reason)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return wrapQueryErr("failed to prepare audit insert", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(r.RunID, r.Package, r.State, r.Reason); err != nil {
			return fmt.Errorf("failed to insert audit result for %s: %w", r.Package, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit results: %w", err)
	}
	return nil
}

// GetAuditResults returns the package outcomes of a run in insertion order.
func (s *Store) GetAuditResults(runID string) ([]*AuditResult, error) {
	query := `
		SELECT run_id, package, state, reason
		FROM audit_results
		WHERE run_id = ?
		ORDER BY id
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get audit results for %s", runID), err)
	}
	defer rows.Close()

	var results []*AuditResult
	for rows.Next() {
		var r AuditResult
		var reason sql.NullString
		if err := rows.Scan(&r.RunID, &r.Package, &r.State, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		r.Reason = reason.String
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit results: %w", err)
	}
	return results, nil
}
