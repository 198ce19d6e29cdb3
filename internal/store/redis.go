package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"marketcache/internal/status"
)

// RedisConfig holds the connection settings for the dataset cache.
type RedisConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Redis fetches cached dataset records from a Redis instance.
type Redis struct {
	rc  *redis.Client
	log *logrus.Entry
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(conf *RedisConfig, log *logrus.Entry) (*Redis, error) {
	if conf == nil || conf.Addr == "" {
		return nil, errors.New("redis configuration is nil or empty")
	}

	rc := redis.NewClient(&redis.Options{
		Addr:         conf.Addr,
		Username:     conf.Username,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  conf.DialTimeout,
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
	})

	dialTimeout := conf.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect error: %w", err)
	}

	return &Redis{rc: rc, log: log}, nil
}

// Fetch retrieves the record cached under key. A missing key yields NotRun
// with no error; connection faults are returned as errors for the caller to
// classify.
func (r *Redis) Fetch(ctx context.Context, label, key string) (Record, error) {
	val, err := r.rc.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.log.WithFields(logrus.Fields{"label": label, "key": key}).
				Debug("redis key not found")
			return Record{Status: status.NotRun}, nil
		}
		return Record{Status: status.Err}, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if len(val) == 0 {
		return Record{Status: status.MissingData}, nil
	}
	return Record{Status: status.Success, Data: val}, nil
}

// Set caches value under key as JSON. A zero expiration means no TTL.
func (r *Redis) Set(ctx context.Context, key string, value any, expire ...time.Duration) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	ttl := time.Duration(0)
	if len(expire) > 0 {
		ttl = expire[0]
	}
	if err := r.rc.Set(ctx, key, bytes, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.rc.Close()
}
