package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/metrics"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/store"
)

// Reference eviction parameters: a participant is stale after 10
// seconds of silence and sweeps run every 15 seconds.
const (
	DefaultTTL           = 10 * time.Second
	DefaultSweepInterval = 15 * time.Second
)

// Reconciler periodically evicts stale participants and announces
// their departure. It is the only actor that removes a participant
// without a client-initiated request.
type Reconciler struct {
	svc          *Service
	participants store.ParticipantStore
	ttl          time.Duration
	interval     time.Duration
	clock        Clock
	logger       zerolog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewReconciler creates a reconciler over the same registry the
// service uses. Zero ttl or interval fall back to the defaults.
func NewReconciler(svc *Service, participants store.ParticipantStore, ttl, interval time.Duration, clock Clock, logger zerolog.Logger) *Reconciler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Reconciler{
		svc:          svc,
		participants: participants,
		ttl:          ttl,
		interval:     interval,
		clock:        clock,
		logger:       logger,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the periodic sweep in its own goroutine. Calling it
// more than once is a no-op.
func (r *Reconciler) Start() {
	r.startOnce.Do(func() {
		go r.run()
	})
}

// Stop halts the periodic sweep and waits for the loop to exit.
// Idempotent. A reconciler that was never started still stops cleanly.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.startOnce.Do(func() {
		close(r.done)
	})
	<-r.done
}

func (r *Reconciler) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().
		Dur("ttl", r.ttl).
		Dur("interval", r.interval).
		Msg("presence reconciler started")

	for {
		select {
		case <-r.stop:
			r.logger.Info().Msg("presence reconciler stopped")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error().Err(err).Msg("sweep failed")
			}
			cancel()
		}
	}
}

// Sweep runs one reconciliation pass: every participant silent for
// longer than the TTL is evicted and a departure notice appended.
// Each eviction is an independent unit; a failure on one participant
// never aborts the others. Returns the number of evictions.
//
// The conditional evict re-checks staleness inside the store, so a
// heartbeat that lands between the staleness snapshot and the removal
// keeps its participant in the room.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	started := time.Now()
	cutoff := r.clock.Now().Add(-r.ttl)

	stale, err := r.participants.ListStale(ctx, cutoff)
	if err != nil {
		return 0, storeFault(err)
	}

	evicted := 0
	for _, p := range stale {
		ok, err := r.participants.EvictParticipant(ctx, p.Name, cutoff)
		if err != nil {
			metrics.SweepFailures.Inc()
			r.logger.Warn().Err(err).Str("participant", p.Name).
				Msg("failed to evict stale participant")
			continue
		}
		if !ok {
			// Refreshed or removed since the snapshot.
			continue
		}

		evicted++
		metrics.ParticipantsEvicted.Inc()
		r.logger.Info().Str("participant", p.Name).
			Time("last_activity", p.LastActivity).
			Msg("evicted stale participant")

		if _, err := r.svc.Send(ctx, p.Name, models.Everyone, p.Name+" left", models.KindSystem); err != nil {
			metrics.SweepFailures.Inc()
			r.logger.Warn().Err(err).Str("participant", p.Name).
				Msg("failed to append departure notice")
		}
	}

	metrics.SweepDuration.Observe(time.Since(started).Seconds())
	return evicted, nil
}
