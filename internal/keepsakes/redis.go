package keepsakes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps keepsakes in redis with the same key layout as the QR
// archive: a JSON value per keepsake, a sorted set per user and a guard
// key per session.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "reuseit"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisStore) itemKey(id string) string {
	return fmt.Sprintf("%s:keepsake:%s", s.prefix, id)
}

func (s *RedisStore) userKey(userID string) string {
	return fmt.Sprintf("%s:keepsakes:user:%s", s.prefix, userID)
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:keepsakes:session:%s", s.prefix, sessionID)
}

func (s *RedisStore) Add(ctx context.Context, k *Keepsake) error {
	if err := k.Validate(); err != nil {
		return err
	}
	id := uuid.NewString()

	if k.SessionID != "" {
		ok, err := s.rdb.SetNX(ctx, s.sessionKey(k.SessionID), id, 0).Result()
		if err != nil {
			return fmt.Errorf("reserve session %s: %w", k.SessionID, err)
		}
		if !ok {
			return s.existing(ctx, k)
		}
	}

	k.ID = id
	k.CreatedAt = s.now().UTC()
	payload, err := json.Marshal(k)
	if err != nil {
		return fmt.Errorf("marshal keepsake %s: %w", id, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.itemKey(id), payload, 0)
		pipe.ZAdd(ctx, s.userKey(k.UserID), redis.Z{
			Score:  float64(k.CreatedAt.UnixNano()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		if k.SessionID != "" {
			s.rdb.Del(ctx, s.sessionKey(k.SessionID))
		}
		return fmt.Errorf("store keepsake %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) existing(ctx context.Context, k *Keepsake) error {
	id, err := s.rdb.Get(ctx, s.sessionKey(k.SessionID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load session %s: %w", k.SessionID, err)
	}
	if id == "" {
		return ErrDuplicate
	}
	stored, err := s.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		k.ID = id
	case err != nil:
		return err
	default:
		*k = stored
	}
	return ErrDuplicate
}

func (s *RedisStore) Get(ctx context.Context, id string) (Keepsake, error) {
	raw, err := s.rdb.Get(ctx, s.itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Keepsake{}, ErrNotFound
	}
	if err != nil {
		return Keepsake{}, fmt.Errorf("load keepsake %s: %w", id, err)
	}
	var k Keepsake
	if err := json.Unmarshal(raw, &k); err != nil {
		return Keepsake{}, fmt.Errorf("decode keepsake %s: %w", id, err)
	}
	return k, nil
}

func (s *RedisStore) List(ctx context.Context, userID string) ([]Keepsake, error) {
	ids, err := s.rdb.ZRevRange(ctx, s.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list keepsakes for %s: %w", userID, err)
	}
	out := make([]Keepsake, 0, len(ids))
	for _, id := range ids {
		k, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	k, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.itemKey(id))
		pipe.ZRem(ctx, s.userKey(k.UserID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete keepsake %s: %w", id, err)
	}
	if k.SessionID != "" {
		// only release the guard if it still points at this keepsake
		if owner, _ := s.rdb.Get(ctx, s.sessionKey(k.SessionID)).Result(); owner == id {
			s.rdb.Del(ctx, s.sessionKey(k.SessionID))
		}
	}
	return nil
}
