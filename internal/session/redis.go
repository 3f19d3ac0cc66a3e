package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// Redis is a Store shared between server replicas. Updates use WATCH/MULTI so
// a lost race is retried against the fresh value.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: "studycentre:session:", now: time.Now}
}

func (r *Redis) key(id string) string { return r.prefix + id }

func (r *Redis) ttlFor(s Snapshot) time.Duration {
	now := r.now()
	return expiry(s, now, r.ttl).Sub(now)
}

func (r *Redis) Create(ctx context.Context, s Snapshot) (Snapshot, error) {
	s = prepare(s, r.now())
	data, err := json.Marshal(s)
	if err != nil {
		return Snapshot{}, err
	}
	ok, err := r.client.SetNX(ctx, r.key(s.ID), data, r.ttlFor(s)).Result()
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{}, ErrConflict
	}
	return s, nil
}

func (r *Redis) Get(ctx context.Context, id string) (Snapshot, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	if s.Selections == nil {
		s.Selections = map[string]int{}
	}
	return s, nil
}

func (r *Redis) Update(ctx context.Context, id string, fn func(*Snapshot) error) (Snapshot, error) {
	key := r.key(id)
	var out Snapshot
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s.Selections == nil {
			s.Selections = map[string]int{}
		}
		if err := fn(&s); err != nil {
			return err
		}
		s.ID = id
		buf, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, r.ttlFor(s))
			return nil
		})
		if err == nil {
			out = s
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}
		return out, nil
	}
	return Snapshot{}, ErrConflict
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}
