package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pingTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
	versionTTL  = time.Hour
)

// ErrUnavailable is returned by strict writes when no Redis is configured.
var ErrUnavailable = errors.New("cache unavailable")

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and behaves as an always-empty cache.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client. Retries are disabled and timeouts kept
// short so an unreachable Redis costs a request one failed dial, not a
// backoff loop.
func New(addr, password string, db int) *Client {
	return &Client{client: redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   -1,
		DialTimeout:  ioTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})}
}

// Connect creates a client and pings it. When Redis cannot be reached the
// client is closed and nil is returned alongside the error, so callers run
// with the always-empty cache instead of a dead connection.
func Connect(ctx context.Context, addr, password string, db int) (*Client, error) {
	c := New(addr, password, db)
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Ping reports whether Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		return nil, nil
	}
	return res, nil
}

// SetStrict stores value with TTL and reports every failure, including a
// missing client. Use it for writes whose loss must not go unnoticed.
func (c *Client) SetStrict(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes a cached value into dst. It reports false on a miss or
// when the cached payload no longer decodes.
func (c *Client) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	data, _ := c.Get(ctx, key)
	if data == nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func versionKey(key string) string {
	return key + ":ver"
}

// Version returns the write generation of key. A missing counter is
// generation 0. ok is false when Redis cannot answer, in which case the
// caller must not cache what it reads.
func (c *Client) Version(ctx context.Context, key string) (version int64, ok bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	v, err := c.client.Get(ctx, versionKey(key)).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bump advances the write generation of key and drops the cached value.
// Readers holding an older generation can no longer populate key.
func (c *Client) Bump(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	vk := versionKey(key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vk)
		pipe.Expire(ctx, vk, versionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		log.Printf("[CACHE] bump %s: %v", key, err)
	}
}

// SetJSONIfVersion stores value only while key is still at version. The
// check and the write run under WATCH, so a Bump that lands between the
// caller's read and this write leaves the cache empty.
func (c *Client) SetJSONIfVersion(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) bool {
	if c == nil || c.client == nil {
		return false
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return false
	}
	vk := versionKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vk).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, vk)
	if err != nil {
		if !errors.Is(err, errStale) && !errors.Is(err, redis.TxFailedErr) {
			log.Printf("[CACHE] set %s: %v", key, err)
		}
		return false
	}
	return true
}

var errStale = errors.New("stale cache write")
