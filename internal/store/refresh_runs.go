package store

import (
	"context"
	"database/sql"
	"time"
)

// RefreshRun records one location's fetch-and-store pass.
type RefreshRun struct {
	ID             int64
	CycleID        string
	LocationID     string
	StartedAt      time.Time
	FinishedAt     sql.NullTime
	Source         sql.NullString
	RecordsFetched sql.NullInt64
	RecordsStored  sql.NullInt64
	Success        bool
	ErrorMessage   sql.NullString
}

// StartRefreshRun creates a refresh run record and returns it.
func (s *Store) StartRefreshRun(ctx context.Context, cycleID, locationID string) (*RefreshRun, error) {
	run := &RefreshRun{
		CycleID:    cycleID,
		LocationID: locationID,
		StartedAt:  s.now().UTC(),
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_runs (cycle_id, location_id, started_at, success)
		VALUES (?, ?, ?, FALSE)
	`, run.CycleID, run.LocationID, run.StartedAt)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteRefreshRun stores the outcome of a run.
func (s *Store) CompleteRefreshRun(ctx context.Context, run *RefreshRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: s.now().UTC(), Valid: true}

	_, err := s.db.ExecContext(ctx, `
		UPDATE refresh_runs SET
			finished_at = ?,
			source = ?,
			records_fetched = ?,
			records_stored = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.Source, run.RecordsFetched, run.RecordsStored,
		run.Success, run.ErrorMessage, run.ID)
	return err
}

// GetRecentRefreshRuns returns the latest runs, newest first.
func (s *Store) GetRecentRefreshRuns(ctx context.Context, limit int) ([]RefreshRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle_id, location_id, started_at, finished_at, source,
		       records_fetched, records_stored, success, error_message
		FROM refresh_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var r RefreshRun
		if err := rows.Scan(&r.ID, &r.CycleID, &r.LocationID, &r.StartedAt, &r.FinishedAt, &r.Source,
			&r.RecordsFetched, &r.RecordsStored, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
