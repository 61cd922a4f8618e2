package events

import (
	"github.com/google/uuid"

	"github.com/worldboard/server/internal/model"
)

// World events.
const (
	TypeWorldCreated = "WorldCreated"
	TypeWorldDeleted = "WorldDeleted"
)

// Membership events.
const (
	TypeMemberInvited  = "MemberInvited"
	TypeInviteAccepted = "InviteAccepted"
	TypeInviteDeclined = "InviteDeclined"
	TypeMemberKicked   = "MemberKicked"
	TypeMemberLeft     = "MemberLeft"
)

// Task events.
const (
	TypeTaskCreated    = "TaskCreated"
	TypeTaskToggled    = "TaskToggled"
	TypeTaskNoteEdited = "TaskNoteEdited"
	TypeTaskDeleted    = "TaskDeleted"
	TypeTasksReordered = "TasksReordered"
)

// WorldEvent is published when a world is created or deleted.
type WorldEvent struct {
	Envelope
	Name string `json:"name,omitempty"`
}

// NewWorldEvent creates a world lifecycle event.
func NewWorldEvent(eventType string, world *model.World, actorID string) *WorldEvent {
	return &WorldEvent{
		Envelope: newEnvelope(eventType, world.ID, actorID),
		Name:     world.Name,
	}
}

// MembershipEvent is published on every membership transition.
type MembershipEvent struct {
	Envelope
	MembershipID uuid.UUID `json:"membership_id"`
	UserID       string    `json:"user_id"`
}

// NewMembershipEvent creates a membership transition event.
func NewMembershipEvent(eventType string, m *model.Membership, actorID string) *MembershipEvent {
	return &MembershipEvent{
		Envelope:     newEnvelope(eventType, m.WorldID, actorID),
		MembershipID: m.ID,
		UserID:       m.UserID,
	}
}

// TaskEvent is published when a single task changes.
type TaskEvent struct {
	Envelope
	TaskID  uuid.UUID `json:"task_id"`
	Version int64     `json:"version"`
}

// NewTaskEvent creates a task mutation event. version is the task list
// version after the mutation.
func NewTaskEvent(eventType string, task *model.Task, actorID string, version int64) *TaskEvent {
	return &TaskEvent{
		Envelope: newEnvelope(eventType, task.WorldID, actorID),
		TaskID:   task.ID,
		Version:  version,
	}
}

// TasksReorderedEvent is published after a reorder batch commits.
type TasksReorderedEvent struct {
	Envelope
	Count   int   `json:"count"`
	Version int64 `json:"version"`
}

// NewTasksReorderedEvent creates a reorder event.
func NewTasksReorderedEvent(worldID uuid.UUID, actorID string, count int, version int64) *TasksReorderedEvent {
	return &TasksReorderedEvent{
		Envelope: newEnvelope(TypeTasksReordered, worldID, actorID),
		Count:    count,
		Version:  version,
	}
}
