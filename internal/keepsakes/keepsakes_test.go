package keepsakes

import (
	"context"
	"fmt"
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

func photos(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("photos/%d.jpg", i)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		k       Keepsake
		wantErr bool
	}{
		{"manual with photo", Keepsake{UserID: "u1", Source: SourceManual, Name: "Nonna's radio", Photos: photos(1)}, false},
		{"manual with ten photos", Keepsake{UserID: "u1", Source: SourceManual, Name: "Bike", Photos: photos(MaxPhotos)}, false},
		{"manual without photo", Keepsake{UserID: "u1", Source: SourceManual, Name: "Bike"}, true},
		{"too many photos", Keepsake{UserID: "u1", Source: SourceManual, Name: "Bike", Photos: photos(MaxPhotos + 1)}, true},
		{"blank photo", Keepsake{UserID: "u1", Source: SourceManual, Name: "Bike", Photos: []string{" "}}, true},
		{"missing name", Keepsake{UserID: "u1", Source: SourceManual, Name: "  ", Photos: photos(1)}, true},
		{"missing user", Keepsake{Source: SourceManual, Name: "Bike", Photos: photos(1)}, true},
		{"disposal without photo", Keepsake{UserID: "u1", Source: SourceDisposal, SessionID: "s1", Name: "Old lamp"}, false},
		{"disposal without session", Keepsake{UserID: "u1", Source: SourceDisposal, Name: "Old lamp"}, true},
		{"unknown source", Keepsake{UserID: "u1", Source: "import", Name: "Bike", Photos: photos(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.k.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
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

			radio := &Keepsake{UserID: "u1", Source: SourceManual, Name: "Nonna's radio", Description: "It played every Sunday", Photos: photos(2)}
			require.NoError(t, s.Add(ctx, radio))
			assert.NotEmpty(t, radio.ID)
			assert.False(t, radio.CreatedAt.IsZero())

			lamp := &Keepsake{UserID: "u1", Source: SourceDisposal, SessionID: "disposal-1", Name: "Old lamp"}
			require.NoError(t, s.Add(ctx, lamp))

			assert.Error(t, s.Add(ctx, &Keepsake{UserID: "u1", Source: SourceManual, Name: "No photos"}))

			got, err := s.Get(ctx, radio.ID)
			require.NoError(t, err)
			assert.Equal(t, "It played every Sunday", got.Description)
			assert.Equal(t, radio.Photos, got.Photos)

			list, err := s.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, lamp.ID, list[0].ID)
			assert.Equal(t, radio.ID, list[1].ID)

			again := &Keepsake{UserID: "u1", Source: SourceDisposal, SessionID: "disposal-1", Name: "Old lamp"}
			assert.ErrorIs(t, s.Add(ctx, again), ErrDuplicate)
			assert.Equal(t, lamp.ID, again.ID)

			require.NoError(t, s.Delete(ctx, radio.ID))
			_, err = s.Get(ctx, radio.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, radio.ID), ErrNotFound)

			list, err = s.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, lamp.ID, list[0].ID)

			// deleting frees the session for a new keepsake
			require.NoError(t, s.Delete(ctx, lamp.ID))
			require.NoError(t, s.Add(ctx, &Keepsake{UserID: "u1", Source: SourceDisposal, SessionID: "disposal-1", Name: "Old lamp"}))

			empty, err := s.List(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}
