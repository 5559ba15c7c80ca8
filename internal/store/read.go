package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/streamparse/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded scenario execution.
type Run struct {
	ID         string
	Seq        int64 // Assigned by WriteRun; ignored on write
	Scenario   string
	Recognizer string
	Status     string
	Pass       bool
	Digest     string
}

// Event is one recorded trace event.
type Event struct {
	Seq     int64
	Channel string
	Kind    string
	Payload ir.Value
}

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, scenario, recognizer, status, pass, digest
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns recorded runs in seq order. A non-empty scenario
// restricts the list to that scenario's runs.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	query := `
		SELECT id, seq, scenario, recognizer, status, pass, digest
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if scenario != "" {
		query = `
			SELECT id, seq, scenario, recognizer, status, pass, digest
			FROM runs
			WHERE scenario = ?
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`
		args = append(args, scenario)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns all events of a run in seq order.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]Event, error) {
	return s.readEvents(ctx, `
		SELECT seq, channel, kind, payload
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadChannel returns a run's events on one channel in seq order.
func (s *Store) ReadChannel(ctx context.Context, runID, channel string) ([]Event, error) {
	return s.readEvents(ctx, `
		SELECT seq, channel, kind, payload
		FROM events
		WHERE run_id = ? AND channel = ?
		ORDER BY seq ASC
	`, runID, channel)
}

func (s *Store) readEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e       Event
			payload string
		)
		if err := rows.Scan(&e.Seq, &e.Channel, &e.Kind, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Payload, err = unmarshalPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("event seq %d: %w", e.Seq, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run  Run
		pass int
	)
	if err := sc.Scan(&run.ID, &run.Seq, &run.Scenario, &run.Recognizer, &run.Status, &pass, &run.Digest); err != nil {
		return Run{}, err
	}
	run.Pass = pass == 1
	return run, nil
}
