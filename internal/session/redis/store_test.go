package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, ttl), mr
}

func sampleSession() *domain.PaginationSession {
	return &domain.PaginationSession{
		ConversationID: "919876543210",
		Kind:           domain.KindKeyword,
		Keyword:        "fossil",
		Filters:        domain.SearchFilters{CategoryKey: "mens_watch", MaxPrice: domain.Float64(5000)},
		TotalFound:     25,
		SentCount:      10,
		UpdatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestStore_Save_WritesJSONWithTTL(t *testing.T) {
	store, mr := setupTestRedis(t, 30*time.Minute)
	sess := sampleSession()

	require.NoError(t, store.Save(context.Background(), sess))

	raw, err := mr.Get("search_session:919876543210")
	require.NoError(t, err)
	var stored domain.PaginationSession
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "fossil", stored.Keyword)
	assert.Equal(t, 10, stored.SentCount)
	assert.Equal(t, 30*time.Minute, mr.TTL("search_session:919876543210"))
}

func TestStore_Get_RoundTrip(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	sess := sampleSession()
	require.NoError(t, store.Save(context.Background(), sess))

	got, err := store.Get(context.Background(), sess.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, sess.Kind, got.Kind)
	assert.Equal(t, sess.TotalFound, got.TotalFound)
	assert.Equal(t, "mens_watch", got.Filters.CategoryKey)
	require.NotNil(t, got.Filters.MaxPrice)
	assert.Equal(t, 5000.0, *got.Filters.MaxPrice)
	assert.True(t, sess.UpdatedAt.Equal(got.UpdatedAt))
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Get_Expired(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	require.NoError(t, store.Save(context.Background(), sampleSession()))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(context.Background(), "919876543210")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Get_CorruptValue(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	require.NoError(t, mr.Set("search_session:abc", "{not json"))

	_, err := store.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Save_Overwrites(t *testing.T) {
	store, _ := setupTestRedis(t, time.Hour)
	first := sampleSession()
	require.NoError(t, store.Save(context.Background(), first))

	second := sampleSession()
	second.Kind = domain.KindRange
	second.Keyword = ""
	second.TotalFound = 2
	second.SentCount = 2
	require.NoError(t, store.Save(context.Background(), second))

	got, err := store.Get(context.Background(), first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindRange, got.Kind)
	assert.Equal(t, 2, got.TotalFound)
}

func TestStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	require.NoError(t, store.Save(context.Background(), sampleSession()))

	require.NoError(t, store.Delete(context.Background(), "919876543210"))
	assert.False(t, mr.Exists("search_session:919876543210"))

	// Deleting twice is fine.
	require.NoError(t, store.Delete(context.Background(), "919876543210"))
}

func TestStore_RedisDown(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	mr.Close()

	err := store.Save(context.Background(), sampleSession())
	assert.Error(t, err)
	_, err = store.Get(context.Background(), "919876543210")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
