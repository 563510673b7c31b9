package room

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const DefaultRedisSnapshotKey = "huddle|rooms|snapshot"

type RedisStore struct {
	rdclient *redis.Client
	key      string
}

func NewRedisStore(redisURL string, redisPW string, redisDB int, key string) *RedisStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	if key == "" {
		key = DefaultRedisSnapshotKey
	}
	return &RedisStore{
		rdclient: rdclient,
		key:      key,
	}
}

func (r *RedisStore) SaveSnapshot(ctx context.Context, rooms []Room) error {
	data, err := encodeSnapshot(rooms, time.Now())
	if err != nil {
		return err
	}
	err = r.rdclient.Set(ctx, r.key, data, 0).Err()
	if err != nil {
		return errors.Wrapf(err, "Unable to save room snapshot to redis key %s", r.key)
	}
	return nil
}

func (r *RedisStore) LoadSnapshot(ctx context.Context) ([]Room, error) {
	data, err := r.rdclient.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, ErrSnapshotNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "Unable to load room snapshot from redis key %s", r.key)
	}
	return decodeSnapshot(data)
}

func (r *RedisStore) Remove(ctx context.Context) error {
	return r.rdclient.Del(ctx, r.key).Err()
}

func (r *RedisStore) Close() error {
	return r.rdclient.Close()
}
