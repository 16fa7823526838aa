package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
)

// SQLiteStore persists participants and messages in a local SQLite
// database. It implements both ParticipantStore and MessageStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
// If dbPath is empty, defaults to "./data/batepapo.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/batepapo.db"
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// initSchema creates tables if they don't exist. The messages table
// keys insertion order off an autoincrement sequence rather than the
// timestamp, so the log order survives equal timestamps.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		last_activity DATETIME NOT NULL,
		joined_seq INTEGER
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		sender TEXT NOT NULL,
		recipient TEXT NOT NULL,
		text TEXT NOT NULL,
		kind TEXT NOT NULL,
		sent_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_participants_last_activity ON participants(last_activity);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateParticipant registers a new participant row.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, name string, now time.Time) (*models.Participant, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, last_activity, joined_seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(joined_seq), 0) + 1 FROM participants))
	`, id.String(), name, now.UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	return &models.Participant{ID: id, Name: name, LastActivity: now}, nil
}

// GetParticipant retrieves a participant by name, (nil, nil) if absent.
func (s *SQLiteStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	p := &models.Participant{}
	var idStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, last_activity FROM participants WHERE name = ?
	`, name).Scan(&idStr, &p.Name, &p.LastActivity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListParticipants returns all participants in join order.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, last_activity FROM participants ORDER BY joined_seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParticipantRows(rows)
}

// TouchParticipant refreshes last_activity, reporting false if absent.
func (s *SQLiteStore) TouchParticipant(ctx context.Context, name string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participants SET last_activity = ? WHERE name = ?
	`, now.UTC(), name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListStale returns participants whose last_activity is before cutoff.
func (s *SQLiteStore) ListStale(ctx context.Context, cutoff time.Time) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, last_activity FROM participants
		WHERE last_activity < ? ORDER BY joined_seq
	`, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParticipantRows(rows)
}

// EvictParticipant deletes name only if still stale. The staleness
// re-check happens inside the DELETE itself, so a heartbeat committed
// after the sweep's snapshot keeps the participant alive.
func (s *SQLiteStore) EvictParticipant(ctx context.Context, name string, cutoff time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM participants WHERE name = ? AND last_activity < ?
	`, name, cutoff.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RemoveParticipant deletes name unconditionally.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountParticipants returns the number of present participants.
func (s *SQLiteStore) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

// AppendMessage stores a message, assigning a ULID if unset.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender, recipient, text, kind, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.From, msg.To, msg.Text, string(msg.Kind), msg.Time.UTC())
	return err
}

// ScanMessages returns the full log, oldest first.
func (s *SQLiteStore) ScanMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
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
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// scanParticipantRows collects participant rows from a query result.
func scanParticipantRows(rows *sql.Rows) ([]models.Participant, error) {
	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		var idStr string
		if err := rows.Scan(&idStr, &p.Name, &p.LastActivity); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		p.ID = id
		out = append(out, p)
	}
	return out, rows.Err()
}
