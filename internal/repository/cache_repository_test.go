package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client), mr
}

type cachedCurso struct {
	Slug   string `json:"slug"`
	Titulo string `json:"titulo"`
}

func TestCacheRepositoryRoundTripUsesNamespace(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "catalog:slug:excel", cachedCurso{Slug: "excel", Titulo: "Excel"}, time.Minute))
	assert.True(t, mr.Exists(DefaultCacheNamespace+"catalog:slug:excel"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultCacheNamespace+"catalog:slug:excel"))

	var got cachedCurso
	require.NoError(t, repo.Get(ctx, "catalog:slug:excel", &got))
	assert.Equal(t, "Excel", got.Titulo)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "catalog:slug:excel", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	for i := 0; i < 3*deleteBatchSize+7; i++ {
		require.NoError(t, repo.Set(ctx, fmt.Sprintf("catalog:list:%d", i), i, time.Minute))
	}
	require.NoError(t, repo.Set(ctx, "dashboard:summary", 1, time.Minute))
	require.NoError(t, mr.Set("other:catalog:1", "kept"))

	require.NoError(t, repo.DeleteByPattern(ctx, "catalog:*"))

	assert.Equal(t, []string{DefaultCacheNamespace + "dashboard:summary", "other:catalog:1"}, mr.Keys())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest int
	assert.ErrorIs(t, repo.Get(ctx, "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
}

func TestCacheRepositoryCorruptPayload(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, mr.Set(DefaultCacheNamespace+"dashboard:summary", "{not json"))

	var dest map[string]int
	err := repo.Get(context.Background(), "dashboard:summary", &dest)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
}
