package task

import (
	"strings"
	"unicode/utf8"

	"github.com/worldboard/server/internal/model"
)

const (
	maxDescriptionLength = 500
	maxNoteLength        = 2000
)

// OrderBy selects the ordering of a task listing.
type OrderBy string

const (
	OrderByPosition  OrderBy = "position"
	OrderByCreatedAt OrderBy = "created_at"
)

// ParseOrderBy parses an order_by value. The empty string means position.
func ParseOrderBy(s string) (OrderBy, error) {
	switch OrderBy(s) {
	case "", OrderByPosition:
		return OrderByPosition, nil
	case OrderByCreatedAt:
		return OrderByCreatedAt, nil
	default:
		return "", ErrInvalidOrder
	}
}

// CreateTaskRequest represents a request to add a task to a world.
type CreateTaskRequest struct {
	Description string `json:"description" binding:"required"`
	Note        string `json:"note"`
}

// SetNoteRequest represents a request to replace a task's note.
type SetNoteRequest struct {
	Note string `json:"note"`
}

// ReorderRequest is a full reorder batch for a world's task list.
type ReorderRequest struct {
	Positions []model.PositionUpdate `json:"positions" binding:"required,dive"`
}

// ReorderResponse carries the task list version after a reorder.
type ReorderResponse struct {
	Version int64 `json:"version"`
}

func normalizeDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxDescriptionLength {
		return "", ErrInvalidDescription
	}
	return s, nil
}

func validateNote(s string) error {
	if utf8.RuneCountInString(s) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}
