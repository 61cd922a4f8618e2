package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldboard/server/internal/model"
)

// Repository defines the interface for task data access.
type Repository interface {
	Create(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListByWorld(ctx context.Context, worldID uuid.UUID, orderBy OrderBy) ([]model.Task, error)
	ListIDs(ctx context.Context, worldID uuid.UUID) ([]uuid.UUID, error)
	MaxPosition(ctx context.Context, worldID uuid.UUID) (int, error)
	SetCompleted(ctx context.Context, id, worldID uuid.UUID, completed bool) (int64, error)
	SetNote(ctx context.Context, id uuid.UUID, creatorID, note string) (int64, error)
	SetPosition(ctx context.Context, id, worldID uuid.UUID, position int) (int64, error)
	Delete(ctx context.Context, id, worldID uuid.UUID) (int64, error)

	// Task list versioning
	Version(ctx context.Context, worldID uuid.UUID) (int64, error)
	BumpVersion(ctx context.Context, worldID uuid.UUID) (int64, error)

	// Transaction support
	WithTx(tx *gorm.DB) Repository
	BeginTx(ctx context.Context) (*gorm.DB, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
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

// Create inserts a task.
func (r *repository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Get retrieves a task by ID.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// ListByWorld lists a world's tasks.
func (r *repository) ListByWorld(ctx context.Context, worldID uuid.UUID, orderBy OrderBy) ([]model.Task, error) {
	order := "position ASC, created_at ASC, id ASC"
	if orderBy == OrderByCreatedAt {
		order = "created_at ASC, id ASC"
	}

	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("world_id = ?", worldID).
		Order(order).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListIDs returns the ids of every task in a world.
func (r *repository) ListIDs(ctx context.Context, worldID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("world_id = ?", worldID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MaxPosition returns the highest position in a world, or -1 if it has no tasks.
func (r *repository) MaxPosition(ctx context.Context, worldID uuid.UUID) (int, error) {
	var max int
	row := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("world_id = ?", worldID).
		Select("COALESCE(MAX(position), -1)").
		Row()
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// SetCompleted sets a task's completion flag.
func (r *repository) SetCompleted(ctx context.Context, id, worldID uuid.UUID, completed bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND world_id = ?", id, worldID).
		Update("is_completed", completed)
	return result.RowsAffected, result.Error
}

// SetNote replaces the note of a task created by creatorID.
func (r *repository) SetNote(ctx context.Context, id uuid.UUID, creatorID, note string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Update("note", note)
	return result.RowsAffected, result.Error
}

// SetPosition sets a task's position.
func (r *repository) SetPosition(ctx context.Context, id, worldID uuid.UUID, position int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND world_id = ?", id, worldID).
		Update("position", position)
	return result.RowsAffected, result.Error
}

// Delete deletes a task.
func (r *repository) Delete(ctx context.Context, id, worldID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND world_id = ?", id, worldID).
		Delete(&model.Task{})
	return result.RowsAffected, result.Error
}

// Version returns a world's task list version.
func (r *repository) Version(ctx context.Context, worldID uuid.UUID) (int64, error) {
	var world model.World
	err := r.db.WithContext(ctx).
		Select("task_list_version").
		Where("id = ?", worldID).
		First(&world).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrWorldNotFound
		}
		return 0, err
	}
	return world.TaskListVersion, nil
}

// BumpVersion increments a world's task list version and returns the new value.
func (r *repository) BumpVersion(ctx context.Context, worldID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.World{}).
		Where("id = ?", worldID).
		UpdateColumn("task_list_version", gorm.Expr("task_list_version + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrWorldNotFound
	}
	return r.Version(ctx, worldID)
}
