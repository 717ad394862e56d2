package pickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDirectory stores point coordinates in one GEO set per kind and point
// details in a hash keyed by ID.
type RedisDirectory struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisDirectory(rdb *redis.Client, prefix string) *RedisDirectory {
	if prefix == "" {
		prefix = "reuseit"
	}
	return &RedisDirectory{rdb: rdb, prefix: prefix}
}

func (d *RedisDirectory) geoKey(kind Kind) string {
	return fmt.Sprintf("%s:pickup:%s", d.prefix, kind)
}

func (d *RedisDirectory) detailsKey() string {
	return d.prefix + ":pickup:details"
}

func (d *RedisDirectory) Add(ctx context.Context, p Point) error {
	if err := p.validate(); err != nil {
		return err
	}
	p.Dist = 0
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pickup point %s: %w", p.ID, err)
	}
	_, err = d.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, d.geoKey(p.Kind), &redis.GeoLocation{
			Name:      p.ID,
			Longitude: p.Lon,
			Latitude:  p.Lat,
		})
		pipe.HSet(ctx, d.detailsKey(), p.ID, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store pickup point %s: %w", p.ID, err)
	}
	return nil
}

func (d *RedisDirectory) Get(ctx context.Context, id string) (Point, error) {
	raw, err := d.rdb.HGet(ctx, d.detailsKey(), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Point{}, ErrNotFound
	}
	if err != nil {
		return Point{}, fmt.Errorf("load pickup point %s: %w", id, err)
	}
	var p Point
	if err := json.Unmarshal(raw, &p); err != nil {
		return Point{}, fmt.Errorf("decode pickup point %s: %w", id, err)
	}
	return p, nil
}

func (d *RedisDirectory) Nearby(ctx context.Context, kind Kind, lon, lat, radiusMeters float64, limit int) ([]Point, error) {
	res, err := d.rdb.GeoSearchLocation(ctx, d.geoKey(kind), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lon,
			Latitude:   lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search %s points: %w", kind, err)
	}

	out := make([]Point, 0, len(res))
	for _, loc := range res {
		p, err := d.Get(ctx, loc.Name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p.Dist = loc.Dist
		out = append(out, p)
	}
	return out, nil
}
