package call

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/db"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	database, err := db.NewDatabase("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { database.Conn.Close() })
	return NewRepository(database)
}

func TestCreateStartsRinging(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.Create(ctx, "caller", "receiver", TypeVideo)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, StatusRinging, c.Status)
	assert.Equal(t, TypeVideo, c.CallType)
	assert.Nil(t, c.AnsweredAt)
	assert.Nil(t, c.EndedAt)
}

func TestCreateDefaultsToAudio(t *testing.T) {
	repo := newTestRepo(t)

	c, err := repo.Create(context.Background(), "caller", "receiver", "smoke-signal")
	require.NoError(t, err)
	assert.Equal(t, TypeAudio, c.CallType)
}

func TestSetAccepted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.Create(ctx, "caller", "receiver", TypeAudio)
	require.NoError(t, err)

	answeredAt := time.Now().UTC()
	updated, err := repo.SetAccepted(ctx, c.ID, answeredAt)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, StatusAccepted, updated.Status)
	require.NotNil(t, updated.AnsweredAt)
}

func TestSetMissedOnlyWhileRinging(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.Create(ctx, "caller", "receiver", TypeAudio)
	require.NoError(t, err)

	rejected, err := repo.SetRejected(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, rejected)

	// The late timeout firing must not drag a settled call to missed.
	missed, err := repo.SetMissed(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, missed)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
}

func TestSetEndedGuards(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.Create(ctx, "caller", "receiver", TypeAudio)
	require.NoError(t, err)

	ended, err := repo.SetEnded(ctx, c.ID, time.Now().UTC(), 42)
	require.NoError(t, err)
	require.NotNil(t, ended)
	assert.Equal(t, StatusEnded, ended.Status)
	assert.Equal(t, 42, ended.Duration)
	require.NotNil(t, ended.EndedAt)

	// A second end is a no-op.
	again, err := repo.SetEnded(ctx, c.ID, time.Now().UTC(), 0)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestHistoryNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, "u1", "u2", TypeAudio)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := repo.Create(ctx, "u3", "u1", TypeVideo)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "u4", "u5", TypeAudio)
	require.NoError(t, err)

	history, err := repo.HistoryForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusRinging, StatusAccepted))
	assert.True(t, CanTransition(StatusRinging, StatusMissed))
	assert.True(t, CanTransition(StatusAccepted, StatusEnded))
	assert.False(t, CanTransition(StatusRejected, StatusRinging))
	assert.False(t, CanTransition(StatusMissed, StatusAccepted))
	assert.False(t, CanTransition(StatusEnded, StatusEnded))
}
