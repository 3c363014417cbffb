package middleware

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/config"
)

// ResponseCache stores successful GET responses of the public venue
// listing in Redis.  Keys live under "<prefix>:resp:" so that Purge can
// drop them when a venue becomes visible or hidden.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *zap.Logger
}

// NewResponseCache returns a cache.  A nil client disables it.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) *ResponseCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// cachedResponse is the stored form of one response.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

// bodyRecorder copies what the handler writes, up to limit bytes.
type bodyRecorder struct {
	http.ResponseWriter
	status    int
	body      []byte
	limit     int
	truncated bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if r.limit > 0 && len(r.body)+len(b) > r.limit {
		r.truncated = true
	} else {
		r.body = append(r.body, b...)
	}
	return r.ResponseWriter.Write(b)
}

// key hashes the parts of the request selected by KeyStrategy.
func (rc *ResponseCache) key(c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(rc.cfg.KeyStrategy) {
	case "route":
		parts = []string{c.Path()}
	case "method_route":
		parts = []string{r.Method, c.Path()}
	case "method_route_query":
		parts = []string{r.Method, c.Path(), r.URL.RawQuery}
	default: // route_query
		parts = []string{c.Path(), r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%s:resp:%x", rc.cfg.Prefix, sum)
}

// Middleware serves cached responses and records misses.  Requests with
// "Cache-Control: no-cache" skip the lookup but still refresh the entry.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !rc.enabled() {
			return next
		}
		return func(c echo.Context) error {
			req := c.Request()
			if !rc.cfg.Methods[strings.ToUpper(req.Method)] {
				return next(c)
			}
			ctx := req.Context()
			key := rc.key(c)

			if !strings.Contains(req.Header.Get("Cache-Control"), "no-cache") {
				if hit, ok := rc.load(ctx, key); ok {
					h := c.Response().Header()
					for k, vals := range hit.Header {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						h[k] = vals
					}
					h.Set("X-Cache", "HIT")
					c.Response().WriteHeader(hit.Status)
					_, err := c.Response().Write(hit.Body)
					return err
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.truncated {
				return nil
			}
			rc.store(context.WithoutCancel(ctx), key, cachedResponse{
				Status: rec.status,
				Header: c.Response().Header().Clone(),
				Body:   rec.body,
			})
			return nil
		}
	}
}

func (rc *ResponseCache) load(ctx context.Context, key string) (cachedResponse, bool) {
	var hit cachedResponse
	raw, err := rc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.log.Warn("response cache read failed", zap.String("key", key), zap.Error(err))
		}
		return hit, false
	}
	if err := json.Unmarshal(raw, &hit); err != nil || hit.Status == 0 {
		return hit, false
	}
	return hit, true
}

func (rc *ResponseCache) store(ctx context.Context, key string, resp cachedResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := rc.rdb.Set(ctx, key, raw, rc.cfg.TTL).Err(); err != nil {
		rc.log.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge deletes every cached response.  It is called after a venue
// changes visibility so the listing does not lag behind.
func (rc *ResponseCache) Purge(ctx context.Context) error {
	if !rc.enabled() {
		return nil
	}
	iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":resp:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rc.rdb.Del(ctx, keys...).Err()
}
