package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupIdempotencyRouter(rdb *redis.Client, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	r.POST("/leaves/:id/confirm", middleware.Idempotency(rdb), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestIdempotency(t *testing.T) {
	userID := "5b9a4f2e-1d1f-4a6a-9a93-0f8f52a7f001"

	t.Run("no key passes through", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		r := setupIdempotencyRouter(rdb, userID)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/abc/confirm", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first request acquires the lock", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cacheKey := "idemp:/leaves/:id/confirm:" + userID + ":key-1"
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)

		r := setupIdempotencyRouter(rdb, userID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/abc/confirm", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cached response is replayed", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cacheKey := "idemp:/leaves/:id/confirm:" + userID + ":key-2"
		mock.ExpectGet(cacheKey).SetVal(`{"id":"abc","status":"APPROVED"}`)

		r := setupIdempotencyRouter(rdb, userID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/abc/confirm", nil)
		req.Header.Set("Idempotency-Key", "key-2")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "APPROVED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in-flight duplicate is rejected", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cacheKey := "idemp:/leaves/:id/confirm:" + userID + ":key-3"
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

		r := setupIdempotencyRouter(rdb, userID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves/abc/confirm", nil)
		req.Header.Set("Idempotency-Key", "key-3")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
