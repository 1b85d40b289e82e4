package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebosman/buurtkrant/pkg/domain"
)

type failingStore struct {
	getErr error
	setErr error
	inner  *MemoryStore
}

func (s *failingStore) Get(ctx context.Context, key string) (*Entry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.inner.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, entry Entry) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.inner.Set(ctx, entry)
}

func countingRefresh(calls *int32, articles []domain.Article) RefreshFunc {
	return func(_ context.Context) ([]domain.Article, error) {
		atomic.AddInt32(calls, 1)
		return articles, nil
	}
}

func TestCache_GetOrRefresh(t *testing.T) {
	articles := []domain.Article{{ID: "a1", Title: "Eerste"}, {ID: "a2", Title: "Tweede"}}

	t.Run("miss then hit within ttl", func(t *testing.T) {
		c := New(NewMemoryStore(), 5*time.Minute)
		now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		var calls int32
		got, cached, err := c.GetOrRefresh(context.Background(), "zevenbergen|noord-brabant", countingRefresh(&calls, articles))
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, articles, got)

		now = now.Add(2 * time.Minute)
		got, cached, err = c.GetOrRefresh(context.Background(), "zevenbergen|noord-brabant", countingRefresh(&calls, nil))
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, articles, got)
		assert.Equal(t, int32(1), calls, "second call served from cache")
	})

	t.Run("expired entry refreshed", func(t *testing.T) {
		c := New(NewMemoryStore(), 5*time.Minute)
		now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		var calls int32
		_, _, err := c.GetOrRefresh(context.Background(), "k", countingRefresh(&calls, articles))
		require.NoError(t, err)

		now = now.Add(6 * time.Minute)
		_, cached, err := c.GetOrRefresh(context.Background(), "k", countingRefresh(&calls, articles))
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, int32(2), calls)
	})

	t.Run("keys are independent", func(t *testing.T) {
		c := New(NewMemoryStore(), 5*time.Minute)
		var calls int32
		_, _, err := c.GetOrRefresh(context.Background(), "breda|noord-brabant", countingRefresh(&calls, articles))
		require.NoError(t, err)
		_, _, err = c.GetOrRefresh(context.Background(), "delft|zuid-holland", countingRefresh(&calls, articles))
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls)
	})

	t.Run("refresh error propagates and nothing is cached", func(t *testing.T) {
		c := New(NewMemoryStore(), 5*time.Minute)
		_, _, err := c.GetOrRefresh(context.Background(), "k", func(_ context.Context) ([]domain.Article, error) {
			return nil, fmt.Errorf("all sources down")
		})
		require.Error(t, err)

		var calls int32
		_, cached, err := c.GetOrRefresh(context.Background(), "k", countingRefresh(&calls, articles))
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, int32(1), calls)
	})

	t.Run("store read failure degrades to refetch", func(t *testing.T) {
		store := &failingStore{getErr: fmt.Errorf("disk gone"), inner: NewMemoryStore()}
		c := New(store, 5*time.Minute)

		var calls int32
		got, cached, err := c.GetOrRefresh(context.Background(), "k", countingRefresh(&calls, articles))
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, articles, got)
	})

	t.Run("store write failure still returns articles", func(t *testing.T) {
		store := &failingStore{setErr: fmt.Errorf("disk full"), inner: NewMemoryStore()}
		c := New(store, 5*time.Minute)

		var calls int32
		got, _, err := c.GetOrRefresh(context.Background(), "k", countingRefresh(&calls, articles))
		require.NoError(t, err)
		assert.Equal(t, articles, got)
	})
}

func TestCache_GetOrRefresh_Singleflight(t *testing.T) {
	c := New(NewMemoryStore(), 5*time.Minute)

	var calls int32
	slowRefresh := func(_ context.Context) ([]domain.Article, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return []domain.Article{{ID: "x"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := c.GetOrRefresh(context.Background(), "same-key", slowRefresh)
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls, "concurrent callers share one refresh")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	entry, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, entry)

	in := Entry{Key: "k", Articles: []domain.Article{{ID: "a"}}, CreatedAt: time.Now()}
	require.NoError(t, s.Set(ctx, in))

	entry, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, in.Articles, entry.Articles)
	assert.Equal(t, 1, s.Len())

	// overwrite replaces
	in.Articles = []domain.Article{{ID: "b"}}
	require.NoError(t, s.Set(ctx, in))
	entry, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", entry.Articles[0].ID)
	assert.Equal(t, 1, s.Len())
}
