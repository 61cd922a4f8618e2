package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotency(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	created := 0
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, c.GetHeader("X-User"))
		c.Next()
	})
	router.Use(Idempotency(client, IdempotencyConfig{}))
	router.POST("/worlds/:id/tasks", func(c *gin.Context) {
		created++
		c.JSON(http.StatusCreated, gin.H{"n": created})
	})
	router.PUT("/worlds/:id/tasks/positions", func(c *gin.Context) {
		created++
		c.Status(http.StatusOK)
	})

	request := func(method, user, key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/worlds/w1/tasks", strings.NewReader(body))
		if method == http.MethodPut {
			req = httptest.NewRequest(method, "/worlds/w1/tasks/positions", strings.NewReader(body))
		}
		req.Header.Set("X-User", user)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		return serve(router, req)
	}

	t.Run("replays the first response", func(t *testing.T) {
		first := request(http.MethodPost, "frodo", "k1", `{"description":"Buy bread"}`)
		require.Equal(t, http.StatusCreated, first.Code)

		second := request(http.MethodPost, "frodo", "k1", `{"description":"Buy bread"}`)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
		assert.Equal(t, 1, created)
	})

	t.Run("scoped to caller and body", func(t *testing.T) {
		before := created
		request(http.MethodPost, "sam", "k1", `{"description":"Buy bread"}`)
		request(http.MethodPost, "frodo", "k1", `{"description":"Buy milk"}`)
		assert.Equal(t, before+2, created)
	})

	t.Run("no key passes through", func(t *testing.T) {
		before := created
		request(http.MethodPost, "frodo", "", `{}`)
		request(http.MethodPost, "frodo", "", `{}`)
		assert.Equal(t, before+2, created)
	})

	t.Run("other methods are not cached", func(t *testing.T) {
		before := created
		request(http.MethodPut, "frodo", "k2", `{}`)
		request(http.MethodPut, "frodo", "k2", `{}`)
		assert.Equal(t, before+2, created)
	})

	t.Run("in-flight key conflicts", func(t *testing.T) {
		c := &gin.Context{Request: httptest.NewRequest(http.MethodPost, "/worlds/w1/tasks", strings.NewReader(`{"x":1}`))}
		c.Set(UserIDKey, "pippin")
		mr.Set(requestKey(c, "k3")+":lock", "1")

		w := request(http.MethodPost, "pippin", "k3", `{"x":1}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_IN_PROGRESS")
	})
}

func TestIdempotency_NilRedis(t *testing.T) {
	calls := 0
	router := gin.New()
	router.Use(Idempotency(nil, IdempotencyConfig{}))
	router.POST("/tasks", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/tasks", nil)
		req.Header.Set(IdempotencyKeyHeader, "k")
		assert.Equal(t, http.StatusCreated, serve(router, req).Code)
	}
	assert.Equal(t, 2, calls)
}
