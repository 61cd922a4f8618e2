package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns message", func(t *testing.T) {
		err := &AppError{
			Code:    "TEST_ERROR",
			Message: "test error message",
		}
		assert.Equal(t, "test error message", err.Error())
	})

	t.Run("Error includes wrapped cause", func(t *testing.T) {
		wrapped := errors.New("connection reset")
		err := Internal("list tasks", wrapped)
		assert.Equal(t, "list tasks: connection reset", err.Error())
	})

	t.Run("Error omits class sentinel", func(t *testing.T) {
		assert.Equal(t, "world not found", NotFound("world").Error())
	})

	t.Run("Unwrap returns wrapped error", func(t *testing.T) {
		wrapped := errors.New("wrapped error")
		err := &AppError{Code: "TEST_ERROR", Message: "test", Err: wrapped}
		assert.Equal(t, wrapped, err.Unwrap())
	})
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		code    string
		message string
		status  int
		class   error
	}{
		{"not found", NotFound("membership"), "NOT_FOUND", "membership not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized default", Unauthorized(""), "UNAUTHORIZED", "authentication required", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("only the world owner can invite"), "FORBIDDEN", "only the world owner can invite", http.StatusForbidden, ErrForbidden},
		{"forbidden default", Forbidden(""), "FORBIDDEN", "access denied", http.StatusForbidden, ErrForbidden},
		{"bad request", BadRequest("invalid world id"), "BAD_REQUEST", "invalid world id", http.StatusBadRequest, ErrBadRequest},
		{"validation", ValidationError("unknown theme"), "VALIDATION_ERROR", "unknown theme", http.StatusUnprocessableEntity, ErrBadRequest},
		{"conflict", Conflict("invite is not pending"), "CONFLICT", "invite is not pending", http.StatusConflict, ErrConflict},
		{"rate limited default", RateLimited(""), "RATE_LIMITED", "too many requests", http.StatusTooManyRequests, ErrRateLimited},
		{"unavailable default", ServiceUnavailable(""), "SERVICE_UNAVAILABLE", "service temporarily unavailable", http.StatusServiceUnavailable, ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.ErrorIs(t, tt.err, tt.class)
		})
	}
}

func TestInternal(t *testing.T) {
	t.Run("keeps cause", func(t *testing.T) {
		wrapped := errors.New("database error")
		err := Internal("operation failed", wrapped)
		assert.Equal(t, "INTERNAL_ERROR", err.Code)
		assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
		assert.Equal(t, wrapped, err.Err)
	})

	t.Run("nil cause falls back to class", func(t *testing.T) {
		err := Internal("operation failed", nil)
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestNewAppError(t *testing.T) {
	wrapped := errors.New("original")
	err := NewAppError("CUSTOM_ERROR", "custom message", 418, wrapped)

	assert.Equal(t, "CUSTOM_ERROR", err.Code)
	assert.Equal(t, "custom message", err.Message)
	assert.Equal(t, 418, err.StatusCode)
	assert.Equal(t, wrapped, err.Err)
}

func TestToResponse(t *testing.T) {
	err := Forbidden("only the task creator can edit its note").WithDetails(map[string]any{"task_id": "t1"})

	resp := err.ToResponse()

	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
	assert.Equal(t, "only the task creator can edit its note", resp.Error.Message)
	assert.Equal(t, "t1", resp.Error.Details["task_id"])
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	sentinel := Conflict("already a member")

	withDetails := sentinel.WithDetails(map[string]any{"user_id": "u1"})

	assert.NotSame(t, sentinel, withDetails)
	assert.Nil(t, sentinel.Details)
	assert.True(t, errors.Is(withDetails, sentinel))
}

func TestGetStatusCode(t *testing.T) {
	t.Run("from AppError", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, GetStatusCode(NotFound("task")))
	})

	t.Run("from wrapped AppError", func(t *testing.T) {
		err := fmt.Errorf("kick: %w", Conflict("owners cannot be removed"))
		assert.Equal(t, http.StatusConflict, GetStatusCode(err))
	})

	t.Run("from class errors", func(t *testing.T) {
		tests := []struct {
			err      error
			expected int
		}{
			{ErrNotFound, http.StatusNotFound},
			{ErrUnauthorized, http.StatusUnauthorized},
			{ErrForbidden, http.StatusForbidden},
			{ErrBadRequest, http.StatusBadRequest},
			{ErrConflict, http.StatusConflict},
			{ErrRateLimited, http.StatusTooManyRequests},
			{ErrServiceUnavail, http.StatusServiceUnavailable},
		}

		for _, tt := range tests {
			t.Run(tt.err.Error(), func(t *testing.T) {
				assert.Equal(t, tt.expected, GetStatusCode(tt.err))
			})
		}
	})

	t.Run("unknown error returns 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("unknown error")))
	})
}

func TestAppError_Is(t *testing.T) {
	t.Run("matches same code and message", func(t *testing.T) {
		err1 := Forbidden("only the world owner can invite")
		err2 := Forbidden("only the world owner can invite")
		assert.True(t, errors.Is(err1, err2))
	})

	t.Run("distinguishes sentinels of the same class", func(t *testing.T) {
		notOwner := Forbidden("only the world owner can invite")
		notMember := Forbidden("you are not a member of this world")
		assert.False(t, errors.Is(notOwner, notMember))
		assert.True(t, IsForbidden(notOwner))
		assert.True(t, IsForbidden(notMember))
	})

	t.Run("does not match different code", func(t *testing.T) {
		assert.False(t, errors.Is(NotFound("x"), BadRequest("x not found")))
	})
}

func TestErrorCheckers(t *testing.T) {
	t.Run("IsNotFound", func(t *testing.T) {
		assert.True(t, IsNotFound(ErrNotFound))
		assert.True(t, IsNotFound(NotFound("user")))
		assert.False(t, IsNotFound(ErrUnauthorized))
	})

	t.Run("IsUnauthorized", func(t *testing.T) {
		assert.True(t, IsUnauthorized(Unauthorized("invalid")))
		assert.False(t, IsUnauthorized(ErrNotFound))
	})

	t.Run("IsForbidden", func(t *testing.T) {
		assert.True(t, IsForbidden(Forbidden("denied")))
		assert.False(t, IsForbidden(ErrNotFound))
	})

	t.Run("IsConflict", func(t *testing.T) {
		assert.True(t, IsConflict(Conflict("exists")))
		assert.False(t, IsConflict(NotFound("world")))
	})

	t.Run("IsRateLimited", func(t *testing.T) {
		assert.True(t, IsRateLimited(RateLimited("slow down")))
		assert.False(t, IsRateLimited(ErrNotFound))
	})
}

func TestFromResponse(t *testing.T) {
	t.Run("restores code and class", func(t *testing.T) {
		sent := Conflict("task list changed; reload and retry")
		err := FromResponse(http.StatusConflict, sent.ToResponse())

		assert.True(t, errors.Is(err, sent))
		assert.True(t, IsConflict(err))
		assert.Equal(t, http.StatusConflict, GetStatusCode(err))
	})

	t.Run("validation maps to bad request class", func(t *testing.T) {
		err := FromResponse(http.StatusUnprocessableEntity, ValidationError("unknown theme").ToResponse())
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("empty body", func(t *testing.T) {
		err := FromResponse(http.StatusBadGateway, ErrorResponse{})
		assert.Equal(t, "HTTP_ERROR", err.Code)
		assert.Equal(t, "Bad Gateway", err.Message)
		assert.ErrorIs(t, err, ErrInternal)
		assert.Equal(t, http.StatusBadGateway, GetStatusCode(err))
	})
}
