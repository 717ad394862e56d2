package pickup

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var turin = []Point{
	{ID: "lkr-b12", Kind: KindLocker, Name: "Locker B12", Street: "Via Roma 4", Lon: 7.6836, Lat: 45.0676},
	{ID: "lkr-a3", Kind: KindLocker, Name: "Locker A3", Street: "Corso Vittorio Emanuele II 58", Lon: 7.6781, Lat: 45.0622},
	{ID: "lkr-far", Kind: KindLocker, Name: "Locker Z1", Street: "Via Milano 1", Lon: 9.1900, Lat: 45.4642},
	{ID: "sz-3", Kind: KindSafeZone, Name: "Safe Zone 3", Street: "Piazza Castello", Lon: 7.6858, Lat: 45.0712},
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "Via Roma 4 — Locker B12", turin[0].Description())
	assert.Equal(t, "Locker B12", Point{Name: "Locker B12"}.Description())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("safe_zone")
	require.NoError(t, err)
	assert.Equal(t, KindSafeZone, k)

	_, err = ParseKind("post_office")
	assert.Error(t, err)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(7.68, 45.06, 7.68, 45.06), 1e-6)
	// Turin to Milan is roughly 126 km
	assert.InDelta(t, 126000, Distance(7.6869, 45.0703, 9.1900, 45.4642), 3000)
}

func TestMemoryDirectoryNearby(t *testing.T) {
	ctx := context.Background()
	d, err := NewMemoryDirectory(turin...)
	require.NoError(t, err)

	points, err := d.Nearby(ctx, KindLocker, 7.6840, 45.0680, 2000, 10)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "lkr-b12", points[0].ID)
	assert.Equal(t, "lkr-a3", points[1].ID)
	assert.Less(t, points[0].Dist, points[1].Dist)

	limited, err := d.Nearby(ctx, KindLocker, 7.6840, 45.0680, 2000, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	zones, err := d.Nearby(ctx, KindSafeZone, 7.6840, 45.0680, 2000, 0)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "Piazza Castello — Safe Zone 3", zones[0].Description())
}

func TestMemoryDirectoryRejectsInvalidPoints(t *testing.T) {
	_, err := NewMemoryDirectory(Point{ID: "x", Kind: "kiosk"})
	assert.Error(t, err)
	_, err = NewMemoryDirectory(Point{ID: "y", Kind: KindLocker, Lon: 200})
	assert.Error(t, err)
	_, err = NewMemoryDirectory(Point{Kind: KindLocker})
	assert.Error(t, err)
}

func TestRedisDirectoryAddGet(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	d := NewRedisDirectory(rdb, "test")
	for _, p := range turin {
		require.NoError(t, d.Add(ctx, p))
	}

	p, err := d.Get(ctx, "lkr-b12")
	require.NoError(t, err)
	assert.Equal(t, "Via Roma 4 — Locker B12", p.Description())

	_, err = d.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	members, err := rdb.ZCard(ctx, "test:pickup:locker").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 3, members)
}
