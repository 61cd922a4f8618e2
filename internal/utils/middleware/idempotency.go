package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/worldboard/server/internal/utils/errors"
)

const (
	// IdempotencyKeyHeader carries the client's retry key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the replay cache.
	IdempotentReplayHeader = "Idempotent-Replay"

	idempotencyKeyPrefix  = "worldboard:idempotency:"
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyLockTTL    = 30 * time.Second
)

// ErrRequestInProgress is returned while an earlier request with the same
// idempotency key is still being handled.
var ErrRequestInProgress = apperrors.NewAppError(
	"REQUEST_IN_PROGRESS",
	"a request with this idempotency key is already being processed",
	http.StatusConflict,
	apperrors.ErrConflict,
)

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	// TTL is how long a completed response is replayed.
	TTL time.Duration
	// Methods are the HTTP methods the check applies to. Default: POST.
	Methods []string
}

// Idempotency replays the first response for a repeated Idempotency-Key so
// a retried task creation does not add the task twice. Keys are scoped to
// the caller, route and request body. Without Redis the check is skipped.
func Idempotency(redis goredis.UniversalClient, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = defaultIdempotencyTTL
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{http.MethodPost}
	}
	applies := make(map[string]bool, len(cfg.Methods))
	for _, m := range cfg.Methods {
		applies[m] = true
	}
	store := &replayStore{client: redis, ttl: cfg.TTL}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if redis == nil || key == "" || !applies[c.Request.Method] {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := requestKey(c, key)

		if r, ok := store.get(ctx, cacheKey); ok {
			c.Header(IdempotentReplayHeader, "true")
			c.Data(r.status, r.contentType, r.body)
			c.Abort()
			return
		}

		held, err := store.lock(ctx, cacheKey)
		if err != nil {
			c.Next()
			return
		}
		if !held {
			c.AbortWithStatusJSON(http.StatusConflict, ErrRequestInProgress.ToResponse())
			return
		}
		bg := context.WithoutCancel(ctx)
		defer store.unlock(bg, cacheKey)

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// Server errors stay retryable.
		if status := rec.Status(); status < http.StatusInternalServerError {
			store.put(bg, cacheKey, replay{
				status:      status,
				contentType: rec.Header().Get("Content-Type"),
				body:        rec.buf.Bytes(),
			})
		}
	}
}

type replay struct {
	status      int
	contentType string
	body        []byte
}

// replayStore keeps completed responses as Redis hashes.
type replayStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func (s *replayStore) get(ctx context.Context, key string) (replay, bool) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return replay{}, false
	}
	status, err := strconv.Atoi(fields["status"])
	if err != nil {
		return replay{}, false
	}
	return replay{status: status, contentType: fields["content_type"], body: []byte(fields["body"])}, true
}

func (s *replayStore) put(ctx context.Context, key string, r replay) {
	_, _ = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"status", r.status,
			"content_type", r.contentType,
			"body", r.body,
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
}

func (s *replayStore) lock(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, key+":lock", "1", idempotencyLockTTL).Result()
}

func (s *replayStore) unlock(ctx context.Context, key string) {
	s.client.Del(ctx, key+":lock")
}

// recordingWriter copies the response body as it is written.
type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// requestKey derives the cache key from caller, route, key and body.
func requestKey(c *gin.Context, idempotencyKey string) string {
	h := sha256.New()
	for _, part := range []string{GetUserID(c), c.Request.Method, c.Request.URL.Path, idempotencyKey, bodyHash(c)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return idempotencyKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// bodyHash hashes the request body and restores it for the handler.
func bodyHash(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
