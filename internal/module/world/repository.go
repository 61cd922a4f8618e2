package world

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldboard/server/internal/model"
)

// Repository defines the interface for world and membership data access.
type Repository interface {
	// World operations
	CreateWorld(ctx context.Context, world *model.World) error
	GetWorld(ctx context.Context, id uuid.UUID) (*model.World, error)
	UpdateWorld(ctx context.Context, id uuid.UUID, ownerID string, updates map[string]any) (int64, error)
	DeleteWorld(ctx context.Context, id uuid.UUID) error
	DeleteWorldTasks(ctx context.Context, worldID uuid.UUID) error
	ListWorldsByMember(ctx context.Context, userID string, limit, offset int) ([]*model.World, int64, error)

	// Membership operations
	CreateMembership(ctx context.Context, m *model.Membership) error
	GetMembership(ctx context.Context, id uuid.UUID) (*model.Membership, error)
	FindMembership(ctx context.Context, worldID uuid.UUID, userID string) (*model.Membership, error)
	ListMemberships(ctx context.Context, worldID uuid.UUID) ([]*model.Membership, error)
	ListPendingInvites(ctx context.Context, userID string) ([]*PendingInvite, error)
	AcceptMembership(ctx context.Context, id uuid.UUID, userID string) (int64, error)
	DeletePendingMembership(ctx context.Context, id uuid.UUID, userID string) (int64, error)
	DeleteMemberMembership(ctx context.Context, id, worldID uuid.UUID) (int64, error)
	DeleteWorldMemberships(ctx context.Context, worldID uuid.UUID) error
	UpdateCardStyle(ctx context.Context, worldID uuid.UUID, userID, style string) (int64, error)

	// Transaction support
	WithTx(tx *gorm.DB) Repository
	BeginTx(ctx context.Context) (*gorm.DB, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new world repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a new repository with the given transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// BeginTx starts a new transaction.
func (r *repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// ========== Worlds ==========

// CreateWorld inserts a world.
func (r *repository) CreateWorld(ctx context.Context, world *model.World) error {
	return r.db.WithContext(ctx).Create(world).Error
}

// GetWorld retrieves a world by ID.
func (r *repository) GetWorld(ctx context.Context, id uuid.UUID) (*model.World, error) {
	var world model.World
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&world).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorldNotFound
		}
		return nil, err
	}
	return &world, nil
}

// UpdateWorld updates the given columns of a world owned by ownerID and
// returns the number of rows changed.
func (r *repository) UpdateWorld(ctx context.Context, id uuid.UUID, ownerID string, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.World{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// DeleteWorld deletes the world row only.
func (r *repository) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.World{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWorldNotFound
	}
	return nil
}

// DeleteWorldTasks deletes every task of a world.
func (r *repository) DeleteWorldTasks(ctx context.Context, worldID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("world_id = ?", worldID).Delete(&model.Task{}).Error
}

// ListWorldsByMember lists worlds in which the user holds an accepted membership.
func (r *repository) ListWorldsByMember(ctx context.Context, userID string, limit, offset int) ([]*model.World, int64, error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&model.World{}).
			Joins("JOIN memberships ON memberships.world_id = worlds.id").
			Where("memberships.user_id = ? AND memberships.status = ?", userID, model.MemberStatusAccepted)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var worlds []*model.World
	err := query().
		Select("worlds.*").
		Order("worlds.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&worlds).Error
	if err != nil {
		return nil, 0, err
	}
	return worlds, total, nil
}

// ========== Memberships ==========

// CreateMembership inserts a membership. A second membership for the same
// (world, user) pair is rejected by the unique index.
func (r *repository) CreateMembership(ctx context.Context, m *model.Membership) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyMember
	}
	return err
}

// GetMembership retrieves a membership by ID.
func (r *repository) GetMembership(ctx context.Context, id uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindMembership retrieves the membership of a user in a world.
func (r *repository) FindMembership(ctx context.Context, worldID uuid.UUID, userID string) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("world_id = ? AND user_id = ?", worldID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMemberships lists a world's memberships in insertion order.
func (r *repository) ListMemberships(ctx context.Context, worldID uuid.UUID) ([]*model.Membership, error) {
	var memberships []*model.Membership
	err := r.db.WithContext(ctx).
		Where("world_id = ?", worldID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListPendingInvites lists open invites addressed to a user, newest first.
func (r *repository) ListPendingInvites(ctx context.Context, userID string) ([]*PendingInvite, error) {
	var invites []*PendingInvite
	err := r.db.WithContext(ctx).
		Table("memberships").
		Select("memberships.id AS membership_id, memberships.world_id, worlds.name AS world_name, worlds.owner_id, memberships.created_at").
		Joins("JOIN worlds ON worlds.id = memberships.world_id").
		Where("memberships.user_id = ? AND memberships.status = ?", userID, model.MemberStatusPending).
		Order("memberships.created_at DESC").
		Scan(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

// AcceptMembership moves the caller's own pending membership to accepted.
func (r *repository) AcceptMembership(ctx context.Context, id uuid.UUID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.MemberStatusPending).
		Update("status", model.MemberStatusAccepted)
	return result.RowsAffected, result.Error
}

// DeletePendingMembership deletes the caller's own pending membership.
func (r *repository) DeletePendingMembership(ctx context.Context, id uuid.UUID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, model.MemberStatusPending).
		Delete(&model.Membership{})
	return result.RowsAffected, result.Error
}

// DeleteMemberMembership deletes a non-owner membership of a world.
func (r *repository) DeleteMemberMembership(ctx context.Context, id, worldID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND world_id = ? AND role = ?", id, worldID, model.MemberRoleMember).
		Delete(&model.Membership{})
	return result.RowsAffected, result.Error
}

// DeleteWorldMemberships deletes every membership of a world, the owner's included.
func (r *repository) DeleteWorldMemberships(ctx context.Context, worldID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("world_id = ?", worldID).Delete(&model.Membership{}).Error
}

// UpdateCardStyle sets the card style on the caller's accepted membership.
func (r *repository) UpdateCardStyle(ctx context.Context, worldID uuid.UUID, userID, style string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("world_id = ? AND user_id = ? AND status = ?", worldID, userID, model.MemberStatusAccepted).
		Update("card_style", style)
	return result.RowsAffected, result.Error
}
