package task

import (
	"github.com/google/uuid"

	"github.com/worldboard/server/internal/model"
)

// validateBatch checks that a reorder batch is non-empty, names each task
// once and assigns the dense positions 0..n-1.
func validateBatch(updates []model.PositionUpdate) error {
	if len(updates) == 0 {
		return ErrEmptyBatch
	}
	seenIDs := make(map[uuid.UUID]struct{}, len(updates))
	seenPositions := make([]bool, len(updates))

	for _, u := range updates {
		if _, dup := seenIDs[u.TaskID]; dup {
			return ErrDuplicateTask
		}
		seenIDs[u.TaskID] = struct{}{}

		if u.Position < 0 || u.Position >= len(updates) || seenPositions[u.Position] {
			return ErrInvalidPositions
		}
		seenPositions[u.Position] = true
	}
	return nil
}

// sameTaskSet reports whether the batch names exactly the given task ids.
// The batch must already be free of duplicates.
func sameTaskSet(updates []model.PositionUpdate, current []uuid.UUID) bool {
	if len(updates) != len(current) {
		return false
	}
	ids := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		ids[id] = struct{}{}
	}
	for _, u := range updates {
		if _, ok := ids[u.TaskID]; !ok {
			return false
		}
	}
	return true
}
