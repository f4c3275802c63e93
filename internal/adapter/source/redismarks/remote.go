// Package redismarks shares marks through a redis hash (url -> mark) for
// deployments without the HTTP marks endpoint.
package redismarks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmcdole/imo/internal/domain"
)

// Options configures the redis connection
type Options struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// Remote implements domain.MarksRemote on a redis hash
type Remote struct {
	rdb    *redis.Client
	key    string
	logger *slog.Logger
}

// New connects to redis. The connection is lazy; use Ping to check it.
func New(opts Options, logger *slog.Logger) *Remote {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewWithClient(rdb, opts.Key, logger)
}

// NewWithClient wraps an existing client
func NewWithClient(rdb *redis.Client, key string, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{rdb: rdb, key: key, logger: logger}
}

// Ping tests the redis connection
func (r *Remote) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// GetMarks returns the whole hash
func (r *Remote) GetMarks(ctx context.Context) (domain.Marks, error) {
	raw, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", r.key, err)
	}
	marks := make(domain.Marks, len(raw))
	for u, m := range raw {
		marks[u] = domain.Mark(m)
	}
	r.logger.Debug("fetched redis marks", "key", r.key, "count", len(marks))
	return marks, nil
}

// PostMark writes one field; domain.MarkNone deletes it
func (r *Remote) PostMark(ctx context.Context, url string, mark domain.Mark) error {
	var err error
	if mark.Valid() {
		err = r.rdb.HSet(ctx, r.key, url, mark.String()).Err()
	} else {
		err = r.rdb.HDel(ctx, r.key, url).Err()
	}
	if err != nil {
		return fmt.Errorf("redis write %s: %w", r.key, err)
	}
	return nil
}

// Close closes the redis connection
func (r *Remote) Close() error {
	if r.rdb != nil {
		return r.rdb.Close()
	}
	return nil
}
