package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

// ErrNoSessions is returned when no tracked session matches a lookup.
var ErrNoSessions = errors.New("server: no tracked sessions")

// Store persists the collector's two entities: issued identities and
// submitted session reports.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewStore opens (and initializes) the sqlite database at path.
func NewStore(path string) (*Store, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("server: open database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, tracer: otel.Tracer("decktrace/collector")}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS identities(
	  id         INTEGER PRIMARY KEY,
	  user_token TEXT    NOT NULL UNIQUE,
	  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS tracked_sessions(
	  id            INTEGER PRIMARY KEY,
	  identity_id   INTEGER REFERENCES identities(id),
	  tracking_json TEXT    NOT NULL CHECK (json_valid(tracking_json)),
	  created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_identity ON tracked_sessions(identity_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_created  ON tracked_sessions(created_at);
	`)
	if err != nil {
		return fmt.Errorf("server: create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateIdentity inserts a freshly issued token. Uniqueness is enforced
// by the store; a duplicate token is an error.
func (s *Store) CreateIdentity(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "store.create_identity")
	defer span.End()

	_, err := s.db.ExecContext(ctx, `INSERT INTO identities(user_token) VALUES(?)`, token)
	if err != nil {
		return fmt.Errorf("server: create identity: %w", err)
	}
	return nil
}

// IdentityExists reports whether token was ever issued.
func (s *Store) IdentityExists(ctx context.Context, token string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "store.identity_exists")
	defer span.End()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM identities WHERE user_token = ?`, token).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("server: identity lookup: %w", err)
	}
	return n > 0, nil
}

// SaveSession stores one submitted report. A known token attaches the
// session to its identity; unknown or absent tokens store it unowned.
func (s *Store) SaveSession(ctx context.Context, token string, trackingJSON []byte) error {
	ctx, span := s.tracer.Start(ctx, "store.save_session",
		trace.WithAttributes(attribute.Int("report.bytes", len(trackingJSON))))
	defer span.End()

	var identityID sql.NullInt64
	if token != "" {
		var id int64
		err := s.db.QueryRowContext(ctx, `SELECT id FROM identities WHERE user_token = ?`, token).Scan(&id)
		switch {
		case err == nil:
			identityID = sql.NullInt64{Int64: id, Valid: true}
		case errors.Is(err, sql.ErrNoRows):
			// unknown token: keep the report, unowned
		default:
			return fmt.Errorf("server: identity lookup: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_sessions(identity_id, tracking_json) VALUES(?, json(?))`,
		identityID, string(trackingJSON))
	if err != nil {
		return fmt.Errorf("server: save session: %w", err)
	}
	return nil
}

// LastSession returns the most recently submitted report for token's
// identity, falling back to the most recent report overall when the
// token is absent, unknown, or has no sessions of its own.
func (s *Store) LastSession(ctx context.Context, token string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "store.last_session")
	defer span.End()

	if token != "" {
		var body string
		err := s.db.QueryRowContext(ctx, `
			SELECT ts.tracking_json FROM tracked_sessions ts
			JOIN identities i ON i.id = ts.identity_id
			WHERE i.user_token = ?
			ORDER BY ts.created_at DESC, ts.id DESC LIMIT 1`, token).Scan(&body)
		if err == nil {
			return []byte(body), nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("server: last session: %w", err)
		}
	}

	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT tracking_json FROM tracked_sessions
		ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSessions
	}
	if err != nil {
		return nil, fmt.Errorf("server: last session: %w", err)
	}
	return []byte(body), nil
}
