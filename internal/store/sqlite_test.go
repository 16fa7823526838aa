package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteParticipantLifecycle(t *testing.T) {
	req := require.New(t)
	s := newTestSQLite(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Truncate(time.Second)

	p, err := s.CreateParticipant(ctx, "Alice", t0)
	req.NoError(err)
	req.Equal("Alice", p.Name)

	_, err = s.CreateParticipant(ctx, "Alice", t0)
	req.ErrorIs(err, ErrDuplicateName)

	got, err := s.GetParticipant(ctx, "Alice")
	req.NoError(err)
	req.NotNil(got)
	req.Equal(p.ID, got.ID)

	absent, err := s.GetParticipant(ctx, "Ghost")
	req.NoError(err)
	req.Nil(absent)

	t1 := t0.Add(5 * time.Second)
	ok, err := s.TouchParticipant(ctx, "Alice", t1)
	req.NoError(err)
	req.True(ok)

	// Fresh relative to cutoff: conditional evict refuses.
	ok, err = s.EvictParticipant(ctx, "Alice", t1)
	req.NoError(err)
	req.False(ok)

	stale, err := s.ListStale(ctx, t1.Add(time.Minute))
	req.NoError(err)
	req.Len(stale, 1)

	ok, err = s.EvictParticipant(ctx, "Alice", t1.Add(time.Minute))
	req.NoError(err)
	req.True(ok)

	n, err := s.CountParticipants(ctx)
	req.NoError(err)
	req.Zero(n)
}

func TestSQLiteListOrder(t *testing.T) {
	req := require.New(t)
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, name := range []string{"Carol", "Alice", "Bob"} {
		_, err := s.CreateParticipant(ctx, name, now)
		req.NoError(err)
	}

	list, err := s.ListParticipants(ctx)
	req.NoError(err)
	req.Len(list, 3)
	req.Equal("Carol", list[0].Name)
	req.Equal("Bob", list[2].Name)
}

func TestSQLiteMessageLog(t *testing.T) {
	req := require.New(t)
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := &models.Message{From: "Alice", To: models.Everyone, Text: "one", Kind: models.KindBroadcast, Time: now}
	req.NoError(s.AppendMessage(ctx, first))
	req.NotEmpty(first.ID)

	second := &models.Message{From: "Alice", To: "Bob", Text: "two", Kind: models.KindPrivate, Time: now.Add(time.Second)}
	req.NoError(s.AppendMessage(ctx, second))

	msgs, err := s.ScanMessages(ctx)
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal("one", msgs[0].Text)
	req.Equal(models.KindPrivate, msgs[1].Kind)

	n, err := s.CountMessages(ctx)
	req.NoError(err)
	req.EqualValues(2, n)
}
