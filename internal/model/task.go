package model

import (
	"time"

	"github.com/google/uuid"
)

// Task is a single entry in a world's ordered task list.
type Task struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	WorldID     uuid.UUID `json:"world_id" gorm:"type:uuid;not null;index:idx_task_world_position"`
	Description string    `json:"description" gorm:"not null"`
	IsCompleted bool      `json:"is_completed" gorm:"not null;default:false"`
	CreatorID   string    `json:"creator_id" gorm:"not null"`
	Note        string    `json:"note,omitempty"`
	Position    int       `json:"position" gorm:"not null;default:0;index:idx_task_world_position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name.
func (Task) TableName() string {
	return "tasks"
}

// PositionUpdate assigns a position to one task in a reorder batch.
type PositionUpdate struct {
	TaskID   uuid.UUID `json:"id" binding:"required"`
	Position int       `json:"position" binding:"min=0"`
}

// TaskList is a world's task list as of a given version.
type TaskList struct {
	WorldID uuid.UUID `json:"world_id"`
	Version int64     `json:"version"`
	Tasks   []Task    `json:"tasks"`
}

// DensePositions assigns position = index for every task in order and
// returns the resulting batch.
func DensePositions(tasks []Task) []PositionUpdate {
	updates := make([]PositionUpdate, len(tasks))
	for i := range tasks {
		tasks[i].Position = i
		updates[i] = PositionUpdate{TaskID: tasks[i].ID, Position: i}
	}
	return updates
}
