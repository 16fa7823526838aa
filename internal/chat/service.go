// Package chat implements the presence-and-routing engine: the
// participant registry with TTL expiry, the append-only message log
// with visibility rules, and the reconciler sweep that ties the two
// together.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/metrics"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/store"
)

// Service owns the participant registry and the message log. It is
// constructed once and handed to every operation entry point; acting
// participants are always explicit arguments, never ambient state.
type Service struct {
	participants store.ParticipantStore
	messages     store.MessageStore
	clock        Clock
	logger       zerolog.Logger
}

// NewService creates a Service on top of the given stores.
func NewService(participants store.ParticipantStore, messages store.MessageStore, clock Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{
		participants: participants,
		messages:     messages,
		clock:        clock,
		logger:       logger,
	}
}

// Join registers name and announces the arrival to the room. The name
// is trimmed first; an empty result fails with ErrInvalidInput, a
// duplicate with ErrNameTaken.
func (s *Service) Join(ctx context.Context, name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errInput("name must not be empty")
	}

	p, err := s.participants.CreateParticipant(ctx, name, s.clock.Now())
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, ErrNameTaken
		}
		return nil, storeFault(err)
	}

	// The join notice belongs to the same logical transaction as the
	// registration: if it cannot be appended, undo the registration.
	if _, err := s.appendSystem(ctx, name, name+" joined"); err != nil {
		if _, rbErr := s.participants.RemoveParticipant(ctx, name); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("participant", name).
				Msg("failed to roll back join after notice append failure")
		}
		return nil, err
	}

	metrics.ParticipantsJoined.Inc()
	s.logger.Info().Str("participant", name).Msg("participant joined")
	return p, nil
}

// Heartbeat refreshes name's lastActivity. A heartbeat on an absent
// participant fails with ErrNotFound; it never implicitly re-joins.
func (s *Service) Heartbeat(ctx context.Context, name string) error {
	ok, err := s.participants.TouchParticipant(ctx, name, s.clock.Now())
	if err != nil {
		return storeFault(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Participants returns everyone currently in the room, in join order.
func (s *Service) Participants(ctx context.Context) ([]models.Participant, error) {
	list, err := s.participants.ListParticipants(ctx)
	if err != nil {
		return nil, storeFault(err)
	}
	return list, nil
}

// Participant returns the named participant, or ErrNotFound.
func (s *Service) Participant(ctx context.Context, name string) (*models.Participant, error) {
	p, err := s.participants.GetParticipant(ctx, name)
	if err != nil {
		return nil, storeFault(err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Send appends a message to the log. The recipient and text must be
// non-empty and the kind recognized; the sender must be present unless
// the message is a system notice, which may reference a participant
// that was just removed. Recipient presence is never validated.
func (s *Service) Send(ctx context.Context, from, to, text string, kind models.Kind) (*models.Message, error) {
	if to == "" {
		return nil, errInput("recipient must not be empty")
	}
	if text == "" {
		return nil, errInput("text must not be empty")
	}
	if !kind.Valid() {
		return nil, errInput("unrecognized message kind")
	}

	if kind != models.KindSystem {
		p, err := s.participants.GetParticipant(ctx, from)
		if err != nil {
			return nil, storeFault(err)
		}
		if p == nil {
			return nil, ErrUnknownSender
		}
	}

	msg := &models.Message{
		From: from,
		To:   to,
		Text: text,
		Kind: kind,
		Time: s.clock.Now(),
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		return nil, storeFault(err)
	}

	metrics.MessagesStored.WithLabelValues(string(kind)).Inc()
	return msg, nil
}

// Messages returns the most recent limit messages visible to viewer,
// oldest first. limit 0 means the full visible history; negative
// limits fail with ErrInvalidInput.
func (s *Service) Messages(ctx context.Context, viewer string, limit int) ([]models.Message, error) {
	if limit < 0 {
		return nil, errInput("limit must not be negative")
	}

	all, err := s.messages.ScanMessages(ctx)
	if err != nil {
		return nil, storeFault(err)
	}

	visible := filterVisible(all, viewer)
	if limit > 0 && len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	return visible, nil
}

// Search returns up to limit viewer-visible messages whose text
// contains query (case-insensitive), most recent first.
func (s *Service) Search(ctx context.Context, viewer, query string, limit int) ([]models.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errInput("query must not be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	all, err := s.messages.ScanMessages(ctx)
	if err != nil {
		return nil, storeFault(err)
	}

	needle := strings.ToLower(query)
	results := make([]models.Message, 0, limit)
	for i := len(all) - 1; i >= 0 && len(results) < limit; i-- {
		m := all[i]
		if !VisibleTo(m, viewer) {
			continue
		}
		if strings.Contains(strings.ToLower(m.Text), needle) {
			results = append(results, m)
		}
	}
	return results, nil
}

// appendSystem emits a synthetic room notice addressed to everyone.
func (s *Service) appendSystem(ctx context.Context, from, text string) (*models.Message, error) {
	return s.Send(ctx, from, models.Everyone, text, models.KindSystem)
}

func errInput(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, detail)
}
