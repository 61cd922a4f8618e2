package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldboard/server/internal/model"
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

var (
	worldID = uuid.MustParse("8f0c6a3e-5a53-4a52-9d6e-2a1f9f3f0001")
	otherID = uuid.MustParse("8f0c6a3e-5a53-4a52-9d6e-2a1f9f3f0002")
)

func membership(userID string, role model.MemberRole, status model.MemberStatus) *model.Membership {
	return &model.Membership{
		ID:      uuid.New(),
		WorldID: worldID,
		UserID:  userID,
		Role:    role,
		Status:  status,
	}
}

func TestCanAct(t *testing.T) {
	owner := membership("gandalf", model.MemberRoleOwner, model.MemberStatusAccepted)
	member := membership("frodo", model.MemberRoleMember, model.MemberStatusAccepted)
	other := membership("sam", model.MemberRoleMember, model.MemberStatusAccepted)
	pending := membership("pippin", model.MemberRoleMember, model.MemberStatusPending)
	foreign := membership("frodo", model.MemberRoleOwner, model.MemberStatusAccepted)
	foreign.WorldID = otherID

	world := Target{WorldID: worldID}
	taskBy := func(creator string) Target { return Target{WorldID: worldID, TaskCreatorID: creator} }
	memberTarget := func(m *model.Membership) Target { return Target{WorldID: worldID, Membership: m} }

	tests := []struct {
		name   string
		caller *model.Membership
		action Action
		target Target
		allow  bool
	}{
		// No membership
		{"nil caller view", nil, ActionViewWorld, world, false},
		{"nil caller create task", nil, ActionCreateTask, world, false},
		{"nil caller reorder", nil, ActionReorderTasks, world, false},
		{"nil caller respond", nil, ActionRespondInvite, memberTarget(pending), false},
		{"other world owner rename", foreign, ActionRenameWorld, world, false},

		// Task creation/toggle/reorder
		{"member create task", member, ActionCreateTask, world, true},
		{"owner create task", owner, ActionCreateTask, world, true},
		{"pending create task", pending, ActionCreateTask, world, false},
		{"member toggle any task", member, ActionToggleTask, taskBy("sam"), true},
		{"pending toggle", pending, ActionToggleTask, taskBy("sam"), false},
		{"member reorder", member, ActionReorderTasks, world, true},
		{"pending reorder", pending, ActionReorderTasks, world, false},

		// Notes
		{"creator edits note", member, ActionEditNote, taskBy("frodo"), true},
		{"non-creator edits note", other, ActionEditNote, taskBy("frodo"), false},
		{"owner edits someone else's note", owner, ActionEditNote, taskBy("frodo"), false},
		{"note with unknown creator", member, ActionEditNote, taskBy(""), false},

		// Task deletion
		{"creator deletes", member, ActionDeleteTask, taskBy("frodo"), true},
		{"owner deletes any", owner, ActionDeleteTask, taskBy("frodo"), true},
		{"non-creator non-owner deletes", other, ActionDeleteTask, taskBy("frodo"), false},

		// Member removal
		{"owner kicks member", owner, ActionRemoveMember, memberTarget(member), true},
		{"owner kicks pending", owner, ActionRemoveMember, memberTarget(pending), true},
		{"owner removes self", owner, ActionRemoveMember, memberTarget(owner), false},
		{"member leaves", member, ActionRemoveMember, memberTarget(member), true},
		{"member kicks other", member, ActionRemoveMember, memberTarget(other), false},
		{"member kicks owner", member, ActionRemoveMember, memberTarget(owner), false},
		{"missing target", owner, ActionRemoveMember, world, false},
		{"target in other world", foreign, ActionRemoveMember, Target{WorldID: otherID, Membership: member}, false},

		// World administration
		{"owner renames", owner, ActionRenameWorld, world, true},
		{"member renames", member, ActionRenameWorld, world, false},
		{"owner deletes world", owner, ActionDeleteWorld, world, true},
		{"member deletes world", member, ActionDeleteWorld, world, false},
		{"owner changes theme", owner, ActionChangeTheme, world, true},
		{"member changes theme", member, ActionChangeTheme, world, false},
		{"owner invites", owner, ActionInvite, world, true},
		{"member invites", member, ActionInvite, world, false},

		// Invites
		{"invitee responds", pending, ActionRespondInvite, memberTarget(pending), true},
		{"accepted member responds", member, ActionRespondInvite, memberTarget(member), false},
		{"owner responds for invitee", owner, ActionRespondInvite, memberTarget(pending), false},

		// Card style
		{"member sets card style", member, ActionSetCardStyle, world, true},
		{"pending sets card style", pending, ActionSetCardStyle, world, false},

		{"unknown action", owner, Action("world.transfer"), world, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allow, CanAct(tt.caller, tt.action, tt.target))
		})
	}
}

func TestCanAct_NonMemberIsForbiddenForEveryMutation(t *testing.T) {
	mutations := []Action{
		ActionRenameWorld, ActionDeleteWorld, ActionChangeTheme, ActionInvite,
		ActionRemoveMember, ActionSetCardStyle, ActionCreateTask, ActionToggleTask,
		ActionEditNote, ActionDeleteTask, ActionReorderTasks,
	}
	target := Target{WorldID: worldID, TaskCreatorID: "frodo"}

	for _, action := range mutations {
		t.Run(string(action), func(t *testing.T) {
			err := Check(nil, action, target)
			require.Error(t, err)
			assert.True(t, apperrors.IsForbidden(err))
		})
	}
}

func TestCheck(t *testing.T) {
	owner := membership("gandalf", model.MemberRoleOwner, model.MemberStatusAccepted)
	member := membership("frodo", model.MemberRoleMember, model.MemberStatusAccepted)

	t.Run("allowed returns nil", func(t *testing.T) {
		assert.NoError(t, Check(owner, ActionInvite, Target{WorldID: worldID}))
	})

	t.Run("denial explains itself", func(t *testing.T) {
		err := Check(member, ActionInvite, Target{WorldID: worldID})
		require.Error(t, err)
		assert.True(t, apperrors.IsForbidden(err))
		assert.Equal(t, "only the world owner can invite members", err.Error())
	})

	t.Run("pending caller is told to accept", func(t *testing.T) {
		pending := membership("pippin", model.MemberRoleMember, model.MemberStatusPending)
		err := Check(pending, ActionCreateTask, Target{WorldID: worldID})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accept your invite")
	})
}
