package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
)

const nameStripes = 64

// MemoryStore is an in-process implementation of both ParticipantStore
// and MessageStore. It is the zero-config development backend and the
// store used by tests.
//
// Operations on a single participant name are serialized through a
// striped lock keyed by the name, so the reconciler's conditional evict
// never interleaves with a heartbeat on the same name. The message log
// has its own append lock; sweeps and client traffic on distinct names
// never contend.
type MemoryStore struct {
	stripes [nameStripes]sync.Mutex

	mu           sync.RWMutex
	participants map[string]models.Participant
	order        []string

	logMu    sync.Mutex
	messages []models.Message
	lastTime time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[string]models.Participant),
	}
}

func (s *MemoryStore) stripe(name string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(name))
	return &s.stripes[h.Sum32()%nameStripes]
}

// CreateParticipant registers name, failing with ErrDuplicateName if
// it is already present.
func (s *MemoryStore) CreateParticipant(ctx context.Context, name string, now time.Time) (*models.Participant, error) {
	lock := s.stripe(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[name]; ok {
		return nil, ErrDuplicateName
	}

	p := models.Participant{
		ID:           uuid.New(),
		Name:         name,
		LastActivity: now,
	}
	s.participants[name] = p
	s.order = append(s.order, name)
	return &p, nil
}

// GetParticipant returns the participant or (nil, nil) if absent.
func (s *MemoryStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListParticipants returns all participants in insertion order.
func (s *MemoryStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Participant, 0, len(s.participants))
	for _, name := range s.order {
		if p, ok := s.participants[name]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// TouchParticipant refreshes lastActivity, reporting false if absent.
func (s *MemoryStore) TouchParticipant(ctx context.Context, name string, now time.Time) (bool, error) {
	lock := s.stripe(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return false, nil
	}
	p.LastActivity = now
	s.participants[name] = p
	return true, nil
}

// ListStale returns participants whose lastActivity is before cutoff.
func (s *MemoryStore) ListStale(ctx context.Context, cutoff time.Time) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []models.Participant
	for _, name := range s.order {
		if p, ok := s.participants[name]; ok && p.LastActivity.Before(cutoff) {
			stale = append(stale, p)
		}
	}
	return stale, nil
}

// EvictParticipant deletes name only if it is still stale relative to
// cutoff at deletion time.
func (s *MemoryStore) EvictParticipant(ctx context.Context, name string, cutoff time.Time) (bool, error) {
	lock := s.stripe(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok || !p.LastActivity.Before(cutoff) {
		return false, nil
	}
	s.delete(name)
	return true, nil
}

// RemoveParticipant deletes name unconditionally.
func (s *MemoryStore) RemoveParticipant(ctx context.Context, name string) (bool, error) {
	lock := s.stripe(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[name]; !ok {
		return false, nil
	}
	s.delete(name)
	return true, nil
}

// delete removes name from the map and the insertion-order slice.
// Caller holds s.mu.
func (s *MemoryStore) delete(name string) {
	delete(s.participants, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) CountParticipants(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.participants)), nil
}

// AppendMessage appends msg to the log, assigning a ULID if unset.
// Timestamps are clamped so they never decrease in append order.
func (s *MemoryStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Time.Before(s.lastTime) {
		msg.Time = s.lastTime
	}
	s.lastTime = msg.Time

	s.messages = append(s.messages, *msg)
	return nil
}

// ScanMessages returns a copy of the full log, oldest first.
func (s *MemoryStore) ScanMessages(ctx context.Context) ([]models.Message, error) {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *MemoryStore) CountMessages(ctx context.Context) (int64, error) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return int64(len(s.messages)), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
