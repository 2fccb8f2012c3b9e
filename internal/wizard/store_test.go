package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache is an in-memory Cache for store tests
type fakeCache struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if value, ok := f.values[key]; ok {
		return redis.NewStringResult(value, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestStore_SaveLoadDelete(t *testing.T) {
	cache := newFakeCache()
	store := NewStore(cache, 2*time.Hour)
	ctx := context.Background()

	session := NewSession()
	require.NoError(t, session.Set("nomeCompleto", "Maria Silva"))
	session.Attach("cnh", "cnh.jpg", "image/jpeg", []byte("img"))

	require.NoError(t, store.Save(ctx, session))
	assert.Equal(t, 2*time.Hour, cache.ttls[sessionKey(session.ID)])

	loaded, err := store.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, "Maria Silva", loaded.Draft.NomeCompleto)
	assert.Equal(t, []byte("img"), loaded.Attachments["cnh"].Data)
	assert.True(t, loaded.Touched["nomeCompleto"])

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Load(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(newFakeCache(), time.Hour)

	_, err := store.Load(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
