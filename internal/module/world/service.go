package world

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/infra/events"
	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/module/identity"
	"github.com/worldboard/server/internal/policy"
	"github.com/worldboard/server/internal/utils/pagination"
)

// Service provides world and membership business logic.
type Service struct {
	repo     Repository
	identity identity.Provider
	bus      *events.Bus
	logger   *zap.Logger
}

// NewService creates a new world service.
func NewService(repo Repository, provider identity.Provider, bus *events.Bus, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		identity: provider,
		bus:      bus,
		logger:   logger,
	}
}

// ========== World Operations ==========

// CreateWorld creates a world owned by ownerID. The world, the owner's
// membership and the optional first invite are written in one transaction.
func (s *Service) CreateWorld(ctx context.Context, ownerID string, req *CreateWorldRequest) (*model.World, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	theme := req.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	if !IsValidTheme(theme) {
		return nil, ErrInvalidTheme
	}

	// Resolve the invitee first so a failed lookup creates nothing.
	var inviteeID string
	if req.Invitee != "" {
		inviteeID, err = s.resolveUsername(ctx, req.Invitee)
		if err != nil {
			return nil, err
		}
		if inviteeID == ownerID {
			return nil, ErrAlreadyMember
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	world := &model.World{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Theme:   theme,
	}
	if err := txRepo.CreateWorld(ctx, world); err != nil {
		return nil, err
	}

	owner := &model.Membership{
		ID:      uuid.New(),
		WorldID: world.ID,
		UserID:  ownerID,
		Role:    model.MemberRoleOwner,
		Status:  model.MemberStatusAccepted,
	}
	if err := txRepo.CreateMembership(ctx, owner); err != nil {
		return nil, err
	}

	var invite *model.Membership
	if inviteeID != "" {
		invite = newInvite(world.ID, inviteeID)
		if err := txRepo.CreateMembership(ctx, invite); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("world created",
		zap.String("world_id", world.ID.String()),
		zap.String("owner_id", ownerID),
		zap.String("name", world.Name),
	)
	s.bus.Publish(events.NewWorldEvent(events.TypeWorldCreated, world, ownerID))
	if invite != nil {
		s.bus.Publish(events.NewMembershipEvent(events.TypeMemberInvited, invite, ownerID))
	}

	return world, nil
}

// GetWorld returns a world and the requester's membership in it.
func (s *Service) GetWorld(ctx context.Context, requesterID string, worldID uuid.UUID) (*WorldDetail, error) {
	world, caller, err := s.authorize(ctx, requesterID, worldID, policy.ActionViewWorld)
	if err != nil {
		return nil, err
	}
	return &WorldDetail{World: world, Membership: caller}, nil
}

// RenameWorld renames a world.
func (s *Service) RenameWorld(ctx context.Context, requesterID string, worldID uuid.UUID, name string) (*model.World, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	world, _, err := s.authorize(ctx, requesterID, worldID, policy.ActionRenameWorld)
	if err != nil {
		return nil, err
	}

	if err := s.updateOwned(ctx, world.ID, requesterID, map[string]any{"name": name}); err != nil {
		return nil, err
	}
	world.Name = name
	return world, nil
}

// SetTheme changes a world's theme.
func (s *Service) SetTheme(ctx context.Context, requesterID string, worldID uuid.UUID, theme string) (*model.World, error) {
	if !IsValidTheme(theme) {
		return nil, ErrInvalidTheme
	}

	world, _, err := s.authorize(ctx, requesterID, worldID, policy.ActionChangeTheme)
	if err != nil {
		return nil, err
	}

	if err := s.updateOwned(ctx, world.ID, requesterID, map[string]any{"theme": theme}); err != nil {
		return nil, err
	}
	world.Theme = theme
	return world, nil
}

// updateOwned writes updates only if ownerID owns the world.
func (s *Service) updateOwned(ctx context.Context, worldID uuid.UUID, ownerID string, updates map[string]any) error {
	affected, err := s.repo.UpdateWorld(ctx, worldID, ownerID, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWorldNotFound
	}
	return nil
}

// DeleteWorld deletes a world with all of its tasks and memberships.
func (s *Service) DeleteWorld(ctx context.Context, requesterID string, worldID uuid.UUID) error {
	world, _, err := s.authorize(ctx, requesterID, worldID, policy.ActionDeleteWorld)
	if err != nil {
		return err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)
	if err := txRepo.DeleteWorldTasks(ctx, worldID); err != nil {
		return err
	}
	if err := txRepo.DeleteWorldMemberships(ctx, worldID); err != nil {
		return err
	}
	if err := txRepo.DeleteWorld(ctx, worldID); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("world deleted",
		zap.String("world_id", worldID.String()),
		zap.String("requester_id", requesterID),
	)
	s.bus.Publish(events.NewWorldEvent(events.TypeWorldDeleted, world, requesterID))
	return nil
}

// ListMyWorlds lists the worlds in which the user is an accepted member.
func (s *Service) ListMyWorlds(ctx context.Context, userID string, p *pagination.Pagination) (*WorldListResponse, error) {
	if p == nil {
		p = pagination.New()
	}

	worlds, total, err := s.repo.ListWorldsByMember(ctx, userID, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	if worlds == nil {
		worlds = []*model.World{}
	}
	return &WorldListResponse{Worlds: worlds, Page: p.Info(total)}, nil
}

// ListMembers lists a world's members in insertion order with their profiles.
// A failed profile lookup does not fail the listing.
func (s *Service) ListMembers(ctx context.Context, requesterID string, worldID uuid.UUID) ([]*Member, error) {
	if _, _, err := s.authorize(ctx, requesterID, worldID, policy.ActionViewWorld); err != nil {
		return nil, err
	}

	memberships, err := s.repo.ListMemberships(ctx, worldID)
	if err != nil {
		return nil, err
	}

	members := make([]*Member, 0, len(memberships))
	for _, m := range memberships {
		profile := model.UnknownProfile(m.UserID)
		if p, err := s.identity.GetProfile(ctx, m.UserID); err != nil {
			s.logger.Warn("profile lookup failed",
				zap.String("user_id", m.UserID),
				zap.Error(err),
			)
		} else {
			profile = *p
		}
		members = append(members, newMember(m, profile))
	}
	return members, nil
}

// SetCardStyle sets the caller's card style in a world.
func (s *Service) SetCardStyle(ctx context.Context, userID string, worldID uuid.UUID, style string) (*model.Membership, error) {
	if !IsValidCardStyle(style) {
		return nil, ErrInvalidCardStyle
	}

	_, caller, err := s.authorize(ctx, userID, worldID, policy.ActionSetCardStyle)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.UpdateCardStyle(ctx, worldID, userID, style)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotMember
	}
	caller.CardStyle = style
	return caller, nil
}

// ========== Helpers ==========

// authorize loads the world and the requester's membership and checks the
// policy for action. A missing world is NotFound; a missing membership is
// a denial.
func (s *Service) authorize(ctx context.Context, requesterID string, worldID uuid.UUID, action policy.Action) (*model.World, *model.Membership, error) {
	world, err := s.repo.GetWorld(ctx, worldID)
	if err != nil {
		return nil, nil, err
	}

	caller, err := s.membershipOf(ctx, worldID, requesterID)
	if err != nil {
		return nil, nil, err
	}

	if err := policy.Check(caller, action, policy.Target{WorldID: worldID}); err != nil {
		return nil, nil, err
	}
	return world, caller, nil
}

// membershipOf returns the user's membership in a world, or nil if none.
func (s *Service) membershipOf(ctx context.Context, worldID uuid.UUID, userID string) (*model.Membership, error) {
	m, err := s.repo.FindMembership(ctx, worldID, userID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// resolveUsername resolves an invitee. Every lookup failure is reported as
// an unknown user.
func (s *Service) resolveUsername(ctx context.Context, username string) (string, error) {
	userID, err := s.identity.ResolveUsername(ctx, username)
	if err != nil {
		s.logger.Warn("username lookup failed",
			zap.String("username", username),
			zap.Error(err),
		)
		return "", ErrUserNotFound
	}
	return userID, nil
}

func newInvite(worldID uuid.UUID, userID string) *model.Membership {
	return &model.Membership{
		ID:      uuid.New(),
		WorldID: worldID,
		UserID:  userID,
		Role:    model.MemberRoleMember,
		Status:  model.MemberStatusPending,
	}
}
