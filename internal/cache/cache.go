// Package cache provides an optional Redis-backed cache of conversion
// results, keyed by file content and option fingerprint. Cache errors
// degrade to misses; the pipeline never depends on the cache being up.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaspardpetit/echoflow/internal/convert"
	"github.com/gaspardpetit/echoflow/internal/logx"
	"github.com/gaspardpetit/echoflow/internal/metrics"
)

const keyPrefix = "echoflow:result:"

// Cache stores successful conversion results in Redis.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New connects to Redis at addr and verifies the connection. addr accepts a
// plain host:port or a redis:// URL with an optional database path.
func New(addr string, ttl time.Duration) (*Cache, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Cache{client: client, ttl: ttl}, nil
}

func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("redis: unsupported scheme %q", u.Scheme)
	}
	opts := &redis.UniversalOptions{Addrs: strings.Split(u.Host, ",")}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		db, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis: invalid db: %v", err)
		}
		opts.DB = db
	}
	return opts, nil
}

// Key derives the cache key from the file content and the options that
// influence the output.
func Key(path string, opts convert.Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	fp, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	h.Write(fp)
	return keyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached result for path+opts, or ok=false on miss or any
// cache failure.
func (c *Cache) Get(ctx context.Context, path string, opts convert.Options) (convert.Result, bool) {
	key, err := Key(path, opts)
	if err != nil {
		metrics.RecordCacheEvent("error")
		return convert.Result{}, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheEvent("miss")
		return convert.Result{}, false
	}
	if err != nil {
		logx.Log.Warn().Err(err).Msg("result cache read failed")
		metrics.RecordCacheEvent("error")
		return convert.Result{}, false
	}
	var res convert.Result
	if err := json.Unmarshal(data, &res); err != nil {
		metrics.RecordCacheEvent("error")
		return convert.Result{}, false
	}
	metrics.RecordCacheEvent("hit")
	return res, true
}

// Put stores a successful result. Failed results are never cached.
func (c *Cache) Put(ctx context.Context, path string, opts convert.Options, res convert.Result) {
	if !res.Success {
		return
	}
	key, err := Key(path, opts)
	if err != nil {
		metrics.RecordCacheEvent("error")
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		metrics.RecordCacheEvent("error")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logx.Log.Warn().Err(err).Msg("result cache write failed")
		metrics.RecordCacheEvent("error")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
