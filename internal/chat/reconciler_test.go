package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/store"
)

const (
	testTTL      = 10 * time.Second
	testInterval = 15 * time.Second
)

func newTestReconciler(t *testing.T) (*Reconciler, *Service, *fakeClock) {
	t.Helper()
	mem := store.NewMemoryStore()
	clock := newFakeClock()
	svc := NewService(mem, mem, clock, zerolog.Nop())
	rec := NewReconciler(svc, mem, testTTL, testInterval, clock, zerolog.Nop())
	return rec, svc, clock
}

func TestSweepEvictsStaleParticipant(t *testing.T) {
	rec, svc, clock := newTestReconciler(t)
	ctx := context.Background()
	mustJoin(t, svc, "Dana")

	clock.Advance(testTTL + testInterval)

	evicted, err := rec.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}

	list, err := svc.Participants(ctx)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty room, got %v", list)
	}

	msgs, err := svc.Messages(ctx, "anyone", 0)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	var departures int
	for _, m := range msgs {
		if m.Kind == models.KindSystem && m.From == "Dana" && m.To == models.Everyone && m.Text == "Dana left" {
			departures++
		}
	}
	if departures != 1 {
		t.Fatalf("expected exactly one departure notice, got %d", departures)
	}
}

func TestHeartbeatPreventsEviction(t *testing.T) {
	rec, svc, clock := newTestReconciler(t)
	ctx := context.Background()
	mustJoin(t, svc, "Alice")

	// Stale relative to the join, fresh relative to the heartbeat.
	clock.Advance(testTTL - time.Second)
	if err := svc.Heartbeat(ctx, "Alice"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	clock.Advance(2 * time.Second)

	evicted, err := rec.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if evicted != 0 {
		t.Fatalf("expected no evictions, got %d", evicted)
	}

	p, err := svc.Participant(ctx, "Alice")
	if err != nil || p == nil {
		t.Fatalf("expected Alice still present, got %v, %v", p, err)
	}
}

func TestSweepIdempotentWhenNothingStale(t *testing.T) {
	rec, svc, clock := newTestReconciler(t)
	ctx := context.Background()
	mustJoin(t, svc, "Dana")
	clock.Advance(testTTL + time.Second)

	if _, err := rec.Sweep(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}

	before, err := svc.Messages(ctx, "anyone", 0)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}

	evicted, err := rec.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if evicted != 0 {
		t.Fatalf("expected idle sweep, got %d evictions", evicted)
	}

	after, err := svc.Messages(ctx, "anyone", 0)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("idle sweep appended messages: %d -> %d", len(before), len(after))
	}
}

// flakyParticipantStore fails evictions for one participant, to prove
// sweeps isolate per-item failures.
type flakyParticipantStore struct {
	store.ParticipantStore
	failName string
}

func (s *flakyParticipantStore) EvictParticipant(ctx context.Context, name string, cutoff time.Time) (bool, error) {
	if name == s.failName {
		return false, errors.New("simulated store fault")
	}
	return s.ParticipantStore.EvictParticipant(ctx, name, cutoff)
}

func TestSweepIsolatesPerItemFailures(t *testing.T) {
	mem := store.NewMemoryStore()
	clock := newFakeClock()
	svc := NewService(mem, mem, clock, zerolog.Nop())
	flaky := &flakyParticipantStore{ParticipantStore: mem, failName: "Alpha"}
	rec := NewReconciler(svc, flaky, testTTL, testInterval, clock, zerolog.Nop())
	ctx := context.Background()

	mustJoin(t, svc, "Alpha")
	mustJoin(t, svc, "Beta")
	clock.Advance(testTTL + time.Second)

	evicted, err := rec.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if evicted != 1 {
		t.Fatalf("expected the healthy eviction to proceed, got %d", evicted)
	}

	if p, _ := mem.GetParticipant(ctx, "Beta"); p != nil {
		t.Fatal("expected Beta evicted")
	}
	if p, _ := mem.GetParticipant(ctx, "Alpha"); p == nil {
		t.Fatal("expected Alpha untouched after simulated fault")
	}
}

func TestReconcilerStartStop(t *testing.T) {
	rec, _, _ := newTestReconciler(t)

	rec.Start()
	rec.Stop()
	rec.Stop() // idempotent
}

func TestReconcilerStopWithoutStart(t *testing.T) {
	rec, _, _ := newTestReconciler(t)
	rec.Stop()
}
