package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ihiteshgupta/daemonlink/internal/state"
)

// SQLiteStore implements all repositories using SQLite.
type SQLiteStore struct {
	db          *sql.DB
	Transitions *SQLiteTransitionRepo
	Pairing     *SQLitePairingRepo
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{
		db:          db,
		Transitions: &SQLiteTransitionRepo{db: db},
		Pairing:     &SQLitePairingRepo{db: db},
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	migration := `
	-- Transition journal
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		from_phase TEXT NOT NULL,
		to_phase TEXT NOT NULL,
		label TEXT NOT NULL,
		color TEXT NOT NULL,
		cadence_ms INTEGER NOT NULL DEFAULT 0,
		unexpected BOOLEAN NOT NULL DEFAULT FALSE,
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_session ON transitions(session_id);

	-- Pairing table
	CREATE TABLE IF NOT EXISTS pairing (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		remote_id TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(migration)
	return err
}

// SQLiteTransitionRepo implements TransitionRepository.
type SQLiteTransitionRepo struct {
	db *sql.DB
}

func (r *SQLiteTransitionRepo) LogTransition(ctx context.Context, t *Transition) error {
	ts := t.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transitions (session_id, kind, from_phase, to_phase, label, color, cadence_ms, unexpected, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, string(t.Kind), string(t.FromPhase), string(t.ToPhase),
		t.Label, t.Color, t.CadenceMs, t.Unexpected, ts,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = id
	}
	return nil
}

func (r *SQLiteTransitionRepo) GetTransitionHistory(ctx context.Context, limit int) ([]Transition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, kind, from_phase, to_phase, label, color, cadence_ms, unexpected, timestamp
		FROM transitions ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var t Transition
		var kind, from, to string
		err := rows.Scan(&t.ID, &t.SessionID, &kind, &from, &to, &t.Label, &t.Color, &t.CadenceMs, &t.Unexpected, &t.Timestamp)
		if err != nil {
			return nil, err
		}
		t.Kind = state.Kind(kind)
		t.FromPhase = state.Phase(from)
		t.ToPhase = state.Phase(to)
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

func (r *SQLiteTransitionRepo) CountTransitions(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transitions WHERE session_id = ?", sessionID).Scan(&count)
	return count, err
}

// SQLitePairingRepo implements PairingRepository.
type SQLitePairingRepo struct {
	db *sql.DB
}

func (r *SQLitePairingRepo) SavePairing(ctx context.Context, remoteID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pairing (id, remote_id, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET remote_id = excluded.remote_id, updated_at = excluded.updated_at`,
		remoteID, time.Now(),
	)
	return err
}

func (r *SQLitePairingRepo) GetPairing(ctx context.Context) (*Pairing, error) {
	var p Pairing
	err := r.db.QueryRowContext(ctx, "SELECT remote_id, updated_at FROM pairing WHERE id = 1").Scan(&p.RemoteID, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLitePairingRepo) ClearPairing(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM pairing WHERE id = 1")
	return err
}
