// Package stores opens the archives and pickup directory selected by the
// configuration and loads the seed data into them.
package stores

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/log"

	"reuseit/internal/archive"
	"reuseit/internal/config"
	"reuseit/internal/keepsakes"
	"reuseit/internal/pickup"
	"reuseit/locationsearch/search"
)

// Stores bundles the backends shared by the worker and the gateway
type Stores struct {
	Archive   archive.Store
	Keepsakes keepsakes.Store
	Pickup    pickup.Directory
	Gazetteer *search.Gazetteer

	rdb *redis.Client
}

// Open connects to redis when cfg.Redis.Addr is set and falls back to
// in-memory stores otherwise.
func Open(ctx context.Context, cfg config.Config, logger log.Logger) (*Stores, error) {
	s := &Stores{Gazetteer: search.NewGazetteer(cfg.Seed.Places)}

	if cfg.Redis.Addr == "" {
		dir, err := pickup.NewMemoryDirectory(cfg.Seed.PickupPoints...)
		if err != nil {
			return nil, fmt.Errorf("seed pickup points: %w", err)
		}
		s.Archive = archive.NewMemoryStore()
		s.Keepsakes = keepsakes.NewMemoryStore()
		s.Pickup = dir
		logger.Info("Using in-memory stores", "pickupPoints", len(cfg.Seed.PickupPoints))
		return s, nil
	}

	s.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Redis.Addr, err)
	}

	dir := pickup.NewRedisDirectory(s.rdb, cfg.Redis.Prefix)
	for _, p := range cfg.Seed.PickupPoints {
		if err := dir.Add(ctx, p); err != nil {
			s.rdb.Close()
			return nil, fmt.Errorf("seed pickup point %s: %w", p.ID, err)
		}
	}
	s.Archive = archive.NewRedisStore(s.rdb, cfg.Redis.Prefix)
	s.Keepsakes = keepsakes.NewRedisStore(s.rdb, cfg.Redis.Prefix)
	s.Pickup = dir
	logger.Info("Using redis stores", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix, "pickupPoints", len(cfg.Seed.PickupPoints))
	return s, nil
}

// Close releases the redis connection, if any
func (s *Stores) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
