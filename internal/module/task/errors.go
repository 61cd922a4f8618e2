package task

import (
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

var (
	ErrTaskNotFound  = apperrors.NotFound("task")
	ErrWorldNotFound = apperrors.NotFound("world")

	ErrStaleTaskList = apperrors.Conflict("the task list has changed; reload it and try again")

	ErrInvalidDescription = apperrors.ValidationError("description must be 1 to 500 characters")
	ErrNoteTooLong        = apperrors.ValidationError("note must be at most 2000 characters")
	ErrInvalidOrder       = apperrors.ValidationError("order_by must be position or created_at")
	ErrInvalidPositions   = apperrors.ValidationError("positions must be exactly 0 to n-1")
	ErrDuplicateTask      = apperrors.ValidationError("a task appears more than once in the batch")
	ErrEmptyBatch         = apperrors.ValidationError("a reorder batch must name at least one task")
)
