package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/notes-service/internal/config"
	"github.com/iliyamo/notes-service/internal/logging"
	"github.com/iliyamo/notes-service/internal/model"
	"github.com/iliyamo/notes-service/internal/repository"
)

// countingStore counts list calls that reach the backing store.
type countingStore struct {
	repository.NoteStore
	lists int
}

func (c *countingStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Note, error) {
	c.lists++
	return c.NoteStore.ListByOwner(ctx, ownerID)
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingStore, repository.NoteStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backing := &countingStore{NoteStore: repository.NewMemoryNoteStore()}
	store := NewNoteStore(backing, rdb, config.CacheConfig{TTL: 30 * time.Second, Prefix: "notes"}, logging.Discard())
	return mr, backing, store
}

func TestNewNoteStore_NilClient(t *testing.T) {
	backing := repository.NewMemoryNoteStore()
	got := NewNoteStore(backing, nil, config.CacheConfig{TTL: time.Second}, logging.Discard())
	assert.Same(t, backing, got)
}

func TestListByOwner_ServedFromCache(t *testing.T) {
	_, backing, store := setup(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "alice", "one")
	require.NoError(t, err)

	first, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	second, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, backing.lists)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "one", second[0].Text)
}

func TestListByOwner_EmptyListIsCachedAsEmpty(t *testing.T) {
	_, backing, store := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		notes, err := store.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, notes)
		assert.Empty(t, notes)
	}
	assert.Equal(t, 1, backing.lists)
}

func TestMutationsInvalidate(t *testing.T) {
	_, backing, store := setup(t)
	ctx := context.Background()

	n, err := store.Create(ctx, "alice", "draft")
	require.NoError(t, err)
	_, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)

	_, err = store.UpdateByIDAndOwner(ctx, n.ID, "alice", "final")
	require.NoError(t, err)
	notes, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "final", notes[0].Text)
	assert.Equal(t, 2, backing.lists)

	deleted, err := store.DeleteByIDAndOwner(ctx, n.ID, "alice")
	require.NoError(t, err)
	assert.True(t, deleted)
	notes, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, 3, backing.lists)
}

func TestFailedMutationsKeepCache(t *testing.T) {
	mr, backing, store := setup(t)
	ctx := context.Background()

	n, err := store.Create(ctx, "bob", "mine")
	require.NoError(t, err)
	_, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	gen := mr.Exists("notes:gen:alice")

	_, err = store.UpdateByIDAndOwner(ctx, n.ID, "alice", "stolen")
	assert.ErrorIs(t, err, repository.ErrNoteNotFound)
	deleted, err := store.DeleteByIDAndOwner(ctx, n.ID, "alice")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, gen, mr.Exists("notes:gen:alice"))
	_, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.lists)
}

func TestOwnersAreIsolated(t *testing.T) {
	_, backing, store := setup(t)
	ctx := context.Background()

	_, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	_, err = store.Create(ctx, "bob", "bob's note")
	require.NoError(t, err)

	notes, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, 1, backing.lists, "bob's write must not evict alice's list")
}

func TestEntriesExpire(t *testing.T) {
	mr, backing, store := setup(t)
	ctx := context.Background()

	_, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	mr.FastForward(31 * time.Second)
	_, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.lists)
}

func TestGenerationKeyNeverExpires(t *testing.T) {
	mr, _, store := setup(t)

	_, err := store.Create(context.Background(), "alice", "x")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), mr.TTL("notes:gen:alice"))
}

func TestListAfterLongIdle_SeesNewNote(t *testing.T) {
	mr, _, store := setup(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "alice", "one")
	require.NoError(t, err)
	mr.FastForward(time.Hour - 10*time.Second)

	notes, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	mr.FastForward(11 * time.Second)

	_, err = store.Create(ctx, "alice", "two")
	require.NoError(t, err)
	notes, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestRedisDown_FallsBackToStore(t *testing.T) {
	mr, backing, store := setup(t)
	ctx := context.Background()
	mr.Close()

	n, err := store.Create(ctx, "alice", "still works")
	require.NoError(t, err)
	notes, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, n.ID, notes[0].ID)
	assert.Equal(t, 1, backing.lists)
}
