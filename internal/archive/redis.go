package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps tickets in redis: one JSON value per ticket, a sorted
// set per user scored by creation time, and a guard key per session.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a RedisStore whose keys start with prefix
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "reuseit"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisStore) ticketKey(id string) string {
	return fmt.Sprintf("%s:ticket:%s", s.prefix, id)
}

func (s *RedisStore) userKey(userID string) string {
	return fmt.Sprintf("%s:tickets:user:%s", s.prefix, userID)
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:tickets:session:%s", s.prefix, sessionID)
}

func (s *RedisStore) Save(ctx context.Context, t *Ticket) error {
	id := uuid.NewString()

	if t.SessionID != "" {
		ok, err := s.rdb.SetNX(ctx, s.sessionKey(t.SessionID), id, 0).Result()
		if err != nil {
			return fmt.Errorf("reserve session %s: %w", t.SessionID, err)
		}
		if !ok {
			return s.existing(ctx, t)
		}
	}

	t.ID = id
	t.CreatedAt = s.now().UTC()
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal ticket %s: %w", id, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.ticketKey(id), payload, 0)
		pipe.ZAdd(ctx, s.userKey(t.UserID), redis.Z{
			Score:  float64(t.CreatedAt.UnixNano()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		if t.SessionID != "" {
			s.rdb.Del(ctx, s.sessionKey(t.SessionID))
		}
		return fmt.Errorf("store ticket %s: %w", id, err)
	}
	return nil
}

// existing fills t with the ticket the session guard points at
func (s *RedisStore) existing(ctx context.Context, t *Ticket) error {
	id, err := s.rdb.Get(ctx, s.sessionKey(t.SessionID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load session %s: %w", t.SessionID, err)
	}
	if id == "" {
		return ErrDuplicate
	}
	stored, err := s.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		// reserved by a save that has not finished yet
		t.ID = id
	case err != nil:
		return err
	default:
		*t = stored
	}
	return ErrDuplicate
}

func (s *RedisStore) Get(ctx context.Context, id string) (Ticket, error) {
	raw, err := s.rdb.Get(ctx, s.ticketKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Ticket{}, ErrNotFound
	}
	if err != nil {
		return Ticket{}, fmt.Errorf("load ticket %s: %w", id, err)
	}
	var t Ticket
	if err := json.Unmarshal(raw, &t); err != nil {
		return Ticket{}, fmt.Errorf("decode ticket %s: %w", id, err)
	}
	return t, nil
}

func (s *RedisStore) List(ctx context.Context, userID string) ([]Ticket, error) {
	ids, err := s.rdb.ZRevRange(ctx, s.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list tickets for %s: %w", userID, err)
	}
	out := make([]Ticket, 0, len(ids))
	for _, id := range ids {
		t, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
