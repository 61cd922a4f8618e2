package world

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/infra/events"
	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/policy"
)

// ========== Invite Workflow ==========

// Invite invites a user, by username, to a world. Only the owner may invite.
func (s *Service) Invite(ctx context.Context, requesterID string, worldID uuid.UUID, username string) (*model.Membership, error) {
	if _, _, err := s.authorize(ctx, requesterID, worldID, policy.ActionInvite); err != nil {
		return nil, err
	}

	userID, err := s.resolveUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	existing, err := s.membershipOf(ctx, worldID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	invite := newInvite(worldID, userID)
	if err := s.repo.CreateMembership(ctx, invite); err != nil {
		return nil, err
	}

	s.logger.Info("member invited",
		zap.String("world_id", worldID.String()),
		zap.String("membership_id", invite.ID.String()),
		zap.String("user_id", userID),
		zap.String("requester_id", requesterID),
	)
	s.bus.Publish(events.NewMembershipEvent(events.TypeMemberInvited, invite, requesterID))

	return invite, nil
}

// AcceptInvite moves the caller's pending membership to accepted.
func (s *Service) AcceptInvite(ctx context.Context, userID string, membershipID uuid.UUID) (*model.Membership, error) {
	m, err := s.ownPendingInvite(ctx, userID, membershipID)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.AcceptMembership(ctx, membershipID, userID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotPending
	}
	m.Status = model.MemberStatusAccepted

	s.logger.Info("invite accepted",
		zap.String("world_id", m.WorldID.String()),
		zap.String("membership_id", m.ID.String()),
		zap.String("user_id", userID),
	)
	s.bus.Publish(events.NewMembershipEvent(events.TypeInviteAccepted, m, userID))

	return m, nil
}

// DeclineInvite deletes the caller's pending membership.
func (s *Service) DeclineInvite(ctx context.Context, userID string, membershipID uuid.UUID) error {
	m, err := s.ownPendingInvite(ctx, userID, membershipID)
	if err != nil {
		return err
	}

	affected, err := s.repo.DeletePendingMembership(ctx, membershipID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotPending
	}

	s.logger.Info("invite declined",
		zap.String("world_id", m.WorldID.String()),
		zap.String("membership_id", m.ID.String()),
		zap.String("user_id", userID),
	)
	s.bus.Publish(events.NewMembershipEvent(events.TypeInviteDeclined, m, userID))

	return nil
}

// Kick removes a member or cancels a pending invite. Only the owner may
// kick, and the owner's own membership can never be removed.
func (s *Service) Kick(ctx context.Context, requesterID string, membershipID uuid.UUID) error {
	target, err := s.repo.GetMembership(ctx, membershipID)
	if err != nil {
		return err
	}

	caller, err := s.membershipOf(ctx, target.WorldID, requesterID)
	if err != nil {
		return err
	}
	if caller == nil {
		return ErrNotMember
	}
	if !caller.IsOwner() {
		return ErrNotWorldOwner
	}
	if target.Role == model.MemberRoleOwner {
		return ErrOwnerCannotBeKicked
	}
	if err := policy.Check(caller, policy.ActionRemoveMember, policy.Target{
		WorldID:    target.WorldID,
		Membership: target,
	}); err != nil {
		return err
	}

	affected, err := s.repo.DeleteMemberMembership(ctx, target.ID, target.WorldID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMembershipNotFound
	}

	s.logger.Info("member kicked",
		zap.String("world_id", target.WorldID.String()),
		zap.String("membership_id", target.ID.String()),
		zap.String("user_id", target.UserID),
		zap.String("requester_id", requesterID),
	)
	s.bus.Publish(events.NewMembershipEvent(events.TypeMemberKicked, target, requesterID))

	return nil
}

// Leave deletes the caller's own membership. The owner cannot leave.
func (s *Service) Leave(ctx context.Context, userID string, worldID uuid.UUID) error {
	if _, err := s.repo.GetWorld(ctx, worldID); err != nil {
		return err
	}

	m, err := s.membershipOf(ctx, worldID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotMember
	}
	if m.Role == model.MemberRoleOwner {
		return ErrOwnerCannotLeave
	}
	if err := policy.Check(m, policy.ActionRemoveMember, policy.Target{
		WorldID:    worldID,
		Membership: m,
	}); err != nil {
		return err
	}

	affected, err := s.repo.DeleteMemberMembership(ctx, m.ID, worldID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMembershipNotFound
	}

	s.logger.Info("member left",
		zap.String("world_id", worldID.String()),
		zap.String("membership_id", m.ID.String()),
		zap.String("user_id", userID),
	)
	s.bus.Publish(events.NewMembershipEvent(events.TypeMemberLeft, m, userID))

	return nil
}

// ListMyInvites lists the caller's pending invites.
func (s *Service) ListMyInvites(ctx context.Context, userID string) ([]*PendingInvite, error) {
	invites, err := s.repo.ListPendingInvites(ctx, userID)
	if err != nil {
		return nil, err
	}
	if invites == nil {
		invites = []*PendingInvite{}
	}
	return invites, nil
}

// ownPendingInvite loads a membership the caller may respond to.
func (s *Service) ownPendingInvite(ctx context.Context, userID string, membershipID uuid.UUID) (*model.Membership, error) {
	m, err := s.repo.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, ErrNotYourInvite
	}
	if !m.IsPending() {
		return nil, ErrNotPending
	}
	if err := policy.Check(m, policy.ActionRespondInvite, policy.Target{
		WorldID:    m.WorldID,
		Membership: m,
	}); err != nil {
		return nil, err
	}
	return m, nil
}
