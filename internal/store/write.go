package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record and assigns it the next logical seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - recording the same run
// twice keeps the first copy.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, scenario, recognizer, status, pass, digest)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Scenario,
		run.Recognizer,
		run.Status,
		boolToInt(run.Pass),
		run.Digest,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvents appends a run's trace events in a single transaction.
// The run must already exist (foreign key constraint). Events already
// stored under the same (run_id, seq) are silently ignored.
func (s *Store) WriteEvents(ctx context.Context, runID string, events []Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, seq, channel, kind, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := marshalPayload(e.Payload)
		if err != nil {
			return fmt.Errorf("write events: seq %d: %w", e.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, e.Seq, e.Channel, e.Kind, payload); err != nil {
			return fmt.Errorf("write events: seq %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

// RecordRun writes a run and its events. The run row is written first so
// the events' foreign key holds.
func (s *Store) RecordRun(ctx context.Context, run Run, events []Event) error {
	if err := s.WriteRun(ctx, run); err != nil {
		return err
	}
	return s.WriteEvents(ctx, run.ID, events)
}
