package archive

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	s := NewRedisStore(rdb, "test")
	s.now = stepClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	return s
}

func newMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	s.now = stepClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return newMemoryStore() },
		"redis":  func(t *testing.T) Store { return newRedisStore(t) },
	}

	for name, build := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			first := &Ticket{SessionID: "s1", UserID: "u1", Title: "Locker 5", Item: "iPhone 13 Pro", UnlockCode: "554-129", QRData: "554-129"}
			require.NoError(t, s.Save(ctx, first))
			assert.NotEmpty(t, first.ID)
			assert.False(t, first.CreatedAt.IsZero())

			second := &Ticket{SessionID: "s2", UserID: "u1", Title: "Locker 12", Item: "MacBook Air M2", UnlockCode: "882-331", QRData: "882-331"}
			require.NoError(t, s.Save(ctx, second))
			require.NoError(t, s.Save(ctx, &Ticket{UserID: "u2", Title: "Locker 2", QRData: "110-445"}))

			got, err := s.Get(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "iPhone 13 Pro", got.Item)

			list, err := s.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, second.ID, list[0].ID)
			assert.Equal(t, first.ID, list[1].ID)

			again := &Ticket{SessionID: "s1", UserID: "u1", QRData: "999-000"}
			err = s.Save(ctx, again)
			assert.ErrorIs(t, err, ErrDuplicate)
			assert.Equal(t, first.ID, again.ID)
			assert.Equal(t, "554-129", again.QRData)

			// the same code may be issued to different sessions
			require.NoError(t, s.Save(ctx, &Ticket{SessionID: "s9", UserID: "u3", QRData: "554-129"}))

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			empty, err := s.List(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}
