// Package policy decides whether a member may perform an action in a world.
// Every mutating operation consults CanAct before touching storage.
package policy

import (
	"github.com/google/uuid"

	"github.com/worldboard/server/internal/model"
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

// Action identifies an operation scoped to a world.
type Action string

const (
	ActionViewWorld     Action = "world.view"
	ActionRenameWorld   Action = "world.rename"
	ActionDeleteWorld   Action = "world.delete"
	ActionChangeTheme   Action = "world.theme"
	ActionInvite        Action = "member.invite"
	ActionRespondInvite Action = "member.respond"
	ActionRemoveMember  Action = "member.remove"
	ActionSetCardStyle  Action = "member.card_style"
	ActionCreateTask    Action = "task.create"
	ActionToggleTask    Action = "task.toggle"
	ActionEditNote      Action = "task.note"
	ActionDeleteTask    Action = "task.delete"
	ActionReorderTasks  Action = "task.reorder"
)

// Target describes what an action is applied to.
type Target struct {
	WorldID uuid.UUID
	// TaskCreatorID is set for task actions.
	TaskCreatorID string
	// Membership is set for membership actions.
	Membership *model.Membership
}

// CanAct reports whether caller may perform action on target.
// caller is the acting user's membership in the target world, or nil.
func CanAct(caller *model.Membership, action Action, target Target) bool {
	if caller == nil || caller.WorldID != target.WorldID {
		return false
	}

	if action == ActionRespondInvite {
		m := target.Membership
		return m != nil &&
			m.ID == caller.ID &&
			m.UserID == caller.UserID &&
			caller.IsPending()
	}

	if !caller.IsAccepted() {
		return false
	}

	switch action {
	case ActionViewWorld, ActionCreateTask, ActionToggleTask, ActionReorderTasks, ActionSetCardStyle:
		return true
	case ActionEditNote:
		return target.TaskCreatorID != "" && caller.UserID == target.TaskCreatorID
	case ActionDeleteTask:
		return caller.IsOwner() || (target.TaskCreatorID != "" && caller.UserID == target.TaskCreatorID)
	case ActionRemoveMember:
		m := target.Membership
		if m == nil || m.WorldID != target.WorldID || m.Role == model.MemberRoleOwner {
			return false
		}
		return caller.IsOwner() || caller.UserID == m.UserID
	case ActionRenameWorld, ActionDeleteWorld, ActionChangeTheme, ActionInvite:
		return caller.IsOwner()
	default:
		return false
	}
}

// Check is CanAct returning a Forbidden error that explains the denial.
func Check(caller *model.Membership, action Action, target Target) error {
	if CanAct(caller, action, target) {
		return nil
	}
	return apperrors.Forbidden(Reason(caller, action))
}

// Reason returns a user-facing explanation for a denied action.
func Reason(caller *model.Membership, action Action) string {
	if caller == nil {
		return "you are not a member of this world"
	}
	if action == ActionRespondInvite {
		return "this invite is not addressed to you"
	}
	if !caller.IsAccepted() {
		return "accept your invite before taking part in this world"
	}

	switch action {
	case ActionEditNote:
		return "only the task's creator can edit its note"
	case ActionDeleteTask:
		return "only the task's creator or the world owner can delete it"
	case ActionRemoveMember:
		return "only the world owner can remove other members"
	case ActionRenameWorld:
		return "only the world owner can rename the world"
	case ActionDeleteWorld:
		return "only the world owner can delete the world"
	case ActionChangeTheme:
		return "only the world owner can change the theme"
	case ActionInvite:
		return "only the world owner can invite members"
	default:
		return "you are not allowed to do this"
	}
}
