package middleware

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/config"
	"github.com/iliyamo/turf-slot-booking/internal/utils"
)

const secret = "test-secret"

func newServer(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/who", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": UserID(c), "roles": Roles(c)})
	}, mw...)
	return e
}

func do(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "u-1", roles, time.Minute)
	require.NoError(t, err)
	return tok.Token
}

func TestJWTAuth(t *testing.T) {
	e := newServer(JWTAuth(secret))

	assert.Equal(t, http.StatusUnauthorized, do(e, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "garbage").Code)

	rec := do(e, token(t, "player"))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User  string   `json:"user"`
		Roles []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u-1", body.User)
	assert.Equal(t, []string{"player"}, body.Roles)
}

func TestOptionalJWT(t *testing.T) {
	e := newServer(OptionalJWT(secret))

	rec := do(e, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":""`)

	assert.Equal(t, http.StatusOK, do(e, token(t)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "expired-or-forged").Code)
}

func TestRequireRole(t *testing.T) {
	e := newServer(JWTAuth(secret), RequireRole("admin", "owner"))

	assert.Equal(t, http.StatusForbidden, do(e, token(t, "player")).Code)
	assert.Equal(t, http.StatusOK, do(e, token(t, "player", "owner")).Code)
	assert.Equal(t, http.StatusOK, do(e, token(t, "admin")).Code)
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
	e := newServer(NewTokenBucket(cfg, nil, zap.NewNop()))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(e, "").Code)
	}
}

func TestResponseCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "turf", KeyStrategy: "route_query"}
	rc := NewResponseCache(cfg, rdb, zap.NewNop())

	e := echo.New()
	e.GET("/v1/venues", func(c echo.Context) error {
		t.Fatal("handler must not run on a hit")
		return nil
	}, rc.Middleware())

	sum := sha1.Sum([]byte("/v1/venues\x00city=Pune"))
	key := fmt.Sprintf("turf:resp:%x", sum)
	stored, err := json.Marshal(cachedResponse{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   []byte(`{"venues":[]}`),
	})
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(stored))

	req := httptest.NewRequest(http.MethodGet, "/v1/venues?city=Pune", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"venues":[]}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseCachePurge(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := config.CacheConfig{Enabled: true, Prefix: "turf"}
	rc := NewResponseCache(cfg, rdb, zap.NewNop())

	mock.ExpectScan(0, "turf:resp:*", 100).SetVal([]string{"turf:resp:a", "turf:resp:b"}, 0)
	mock.ExpectDel("turf:resp:a", "turf:resp:b").SetVal(2)
	require.NoError(t, rc.Purge(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())

	var disabled *ResponseCache
	assert.NoError(t, disabled.Purge(context.Background()))
}
