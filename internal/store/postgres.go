package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation.
const uniqueViolation = "23505"

// PostgresStore persists participants and messages in PostgreSQL. It
// implements both ParticipantStore and MessageStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store with a connection pool and ensures
// the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		last_activity TIMESTAMPTZ NOT NULL,
		joined_seq BIGSERIAL
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT UNIQUE NOT NULL,
		sender TEXT NOT NULL,
		recipient TEXT NOT NULL,
		text TEXT NOT NULL,
		kind TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_participants_last_activity ON participants(last_activity);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateParticipant registers a new participant row.
func (s *PostgresStore) CreateParticipant(ctx context.Context, name string, now time.Time) (*models.Participant, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO participants (id, name, last_activity)
		VALUES ($1, $2, $3)
	`, id, name, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	return &models.Participant{ID: id, Name: name, LastActivity: now}, nil
}

// GetParticipant retrieves a participant by name, (nil, nil) if absent.
func (s *PostgresStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	p := &models.Participant{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, last_activity FROM participants WHERE name = $1
	`, name).Scan(&p.ID, &p.Name, &p.LastActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListParticipants returns all participants in join order.
func (s *PostgresStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, last_activity FROM participants ORDER BY joined_seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// TouchParticipant refreshes last_activity, reporting false if absent.
func (s *PostgresStore) TouchParticipant(ctx context.Context, name string, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE participants SET last_activity = $1 WHERE name = $2
	`, now, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListStale returns participants whose last_activity is before cutoff.
func (s *PostgresStore) ListStale(ctx context.Context, cutoff time.Time) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, last_activity FROM participants
		WHERE last_activity < $1 ORDER BY joined_seq
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// EvictParticipant deletes name only if still stale at deletion time.
func (s *PostgresStore) EvictParticipant(ctx context.Context, name string, cutoff time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM participants WHERE name = $1 AND last_activity < $2
	`, name, cutoff)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveParticipant deletes name unconditionally.
func (s *PostgresStore) RemoveParticipant(ctx context.Context, name string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM participants WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountParticipants returns the number of present participants.
func (s *PostgresStore) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

// AppendMessage stores a message, assigning a ULID if unset.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, sender, recipient, text, kind, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.From, msg.To, msg.Text, string(msg.Kind), msg.Time)
	return err
}

// ScanMessages returns the full log, oldest first.
func (s *PostgresStore) ScanMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender, recipient, text, kind, sent_at FROM messages ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		var kind string
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Text, &kind, &m.Time); err != nil {
			return nil, err
		}
		m.Kind = models.Kind(kind)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountMessages returns the total number of stored messages.
func (s *PostgresStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// collectParticipants collects participant rows from a query result.
func collectParticipants(rows pgx.Rows) ([]models.Participant, error) {
	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.LastActivity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
