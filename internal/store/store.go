package store

import (
	"context"
	"errors"
	"time"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
)

// ErrDuplicateName is returned by CreateParticipant when the name is
// already registered.
var ErrDuplicateName = errors.New("participant name already registered")

// ParticipantStore is the persistence contract for the participant
// registry. MemoryStore, SQLiteStore and PostgresStore implement it.
//
// Lookups return (nil, nil) when the participant is absent; errors are
// reserved for store faults.
type ParticipantStore interface {
	// CreateParticipant registers name with lastActivity = now.
	// Returns ErrDuplicateName if the name is taken (case-sensitive).
	CreateParticipant(ctx context.Context, name string, now time.Time) (*models.Participant, error)
	GetParticipant(ctx context.Context, name string) (*models.Participant, error)
	// ListParticipants returns all participants in insertion order.
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	// TouchParticipant refreshes lastActivity. Returns false if absent.
	TouchParticipant(ctx context.Context, name string, now time.Time) (bool, error)
	// ListStale returns participants with lastActivity before cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]models.Participant, error)
	// EvictParticipant deletes name only if its lastActivity is still
	// before cutoff at deletion time. A heartbeat that raced in after
	// the caller's staleness snapshot therefore wins. Returns whether
	// a row was deleted.
	EvictParticipant(ctx context.Context, name string, cutoff time.Time) (bool, error)
	// RemoveParticipant deletes name unconditionally. Returns whether
	// a row was deleted.
	RemoveParticipant(ctx context.Context, name string) (bool, error)
	CountParticipants(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// MessageStore is the persistence contract for the append-only message
// log. Appends are serialized so insertion order is well-defined and
// stored timestamps are non-decreasing in append order.
type MessageStore interface {
	// AppendMessage stores msg, assigning an ID if unset.
	AppendMessage(ctx context.Context, msg *models.Message) error
	// ScanMessages returns the full log, oldest first.
	ScanMessages(ctx context.Context) ([]models.Message, error)
	CountMessages(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
