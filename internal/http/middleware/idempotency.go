package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	pendingMarker = "pending"
	maxKeyLen     = 255
)

// Store keeps one response per idempotency key.
type Store interface {
	// Reserve claims key for an in-flight request. false means it is taken.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the stored value, nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// RedisStore is a Store on SET NX.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "idem:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, s.prefix+key, pendingMarker, ttl).Result()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (s *RedisStore) Save(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.prefix+key, val, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// IdempotencyConfig config for the replay middleware.
type IdempotencyConfig struct {
	Store   Store
	TTL     time.Duration // how long a finished response is replayed
	LockTTL time.Duration // how long an in-flight claim lives
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyDumpWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *bodyDumpWriter) WriteHeader(code int)        { w.ResponseWriter.WriteHeader(code) }
func (w *bodyDumpWriter) Write(b []byte) (int, error) { return w.Writer.Write(b) }

// IdempotencyMiddleware replays the first response for a repeated
// Idempotency-Key. Requests without the header, or without a store, pass
// through. 5xx answers are not kept so the client may try again.
func IdempotencyMiddleware(cfg IdempotencyConfig) echo.MiddlewareFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if key == "" || cfg.Store == nil {
				return next(c)
			}
			if len(key) > maxKeyLen {
				return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "idempotency key too long"})
			}
			key = c.Path() + ":" + key
			ctx := c.Request().Context()

			ok, err := cfg.Store.Reserve(ctx, key, cfg.LockTTL)
			if err != nil {
				// store down: serve without idempotency
				return next(c)
			}
			if !ok {
				raw, err := cfg.Store.Get(ctx, key)
				if err != nil {
					return next(c)
				}
				if raw == nil || string(raw) == pendingMarker {
					return c.JSON(http.StatusConflict, map[string]any{"success": false, "error": "request with this idempotency key is in progress"})
				}
				var sr storedResponse
				if err := json.Unmarshal(raw, &sr); err != nil {
					return next(c)
				}
				c.Response().Header().Set(HeaderReplayed, "true")
				return c.Blob(sr.Status, sr.ContentType, sr.Body)
			}

			buf := new(bytes.Buffer)
			orig := c.Response().Writer
			c.Response().Writer = &bodyDumpWriter{Writer: io.MultiWriter(orig, buf), ResponseWriter: orig}

			returned := false
			defer func() {
				c.Response().Writer = orig
				// a panic in next leaves the claim behind otherwise
				if !returned {
					_ = cfg.Store.Release(context.WithoutCancel(ctx), key)
				}
			}()
			herr := next(c)
			returned = true
			c.Response().Writer = orig

			status := c.Response().Status
			if herr != nil || status >= http.StatusInternalServerError {
				_ = cfg.Store.Release(context.WithoutCancel(ctx), key)
				return herr
			}

			b, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        buf.Bytes(),
			})
			if err == nil {
				_ = cfg.Store.Save(context.WithoutCancel(ctx), key, b, cfg.TTL)
			}
			return nil
		}
	}
}
