package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/infra/events"
	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/policy"
	apperrors "github.com/worldboard/server/internal/utils/errors"
	"github.com/worldboard/server/internal/utils/metrics"
)

// MembershipReader gives the task service read access to worlds and
// memberships.
type MembershipReader interface {
	GetWorld(ctx context.Context, id uuid.UUID) (*model.World, error)
	FindMembership(ctx context.Context, worldID uuid.UUID, userID string) (*model.Membership, error)
}

// Service provides task list business logic.
type Service struct {
	repo    Repository
	members MembershipReader
	bus     *events.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new task service.
func NewService(repo Repository, members MembershipReader, bus *events.Bus, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		members: members,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

// CreateTask appends a task to the end of a world's list.
func (s *Service) CreateTask(ctx context.Context, userID string, worldID uuid.UUID, req *CreateTaskRequest) (*model.Task, error) {
	description, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}
	if err := validateNote(req.Note); err != nil {
		return nil, err
	}

	if err := s.authorizeWorld(ctx, userID, worldID, policy.ActionCreateTask); err != nil {
		return nil, err
	}

	var task *model.Task
	version, err := s.mutate(ctx, worldID, func(txRepo Repository) error {
		max, err := txRepo.MaxPosition(ctx, worldID)
		if err != nil {
			return err
		}
		task = &model.Task{
			ID:          uuid.New(),
			WorldID:     worldID,
			Description: description,
			CreatorID:   userID,
			Note:        req.Note,
			Position:    max + 1,
		}
		return txRepo.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("world_id", worldID.String()),
		zap.String("task_id", task.ID.String()),
		zap.String("creator_id", userID),
	)
	s.bus.Publish(events.NewTaskEvent(events.TypeTaskCreated, task, userID, version))

	return task, nil
}

// ToggleCompletion flips a task's completion flag. Concurrent toggles are
// last-write-wins.
func (s *Service) ToggleCompletion(ctx context.Context, userID string, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.authorizeTask(ctx, userID, taskID, policy.ActionToggleTask)
	if err != nil {
		return nil, err
	}

	completed := !task.IsCompleted
	version, err := s.mutate(ctx, task.WorldID, func(txRepo Repository) error {
		affected, err := txRepo.SetCompleted(ctx, task.ID, task.WorldID, completed)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	task.IsCompleted = completed

	s.bus.Publish(events.NewTaskEvent(events.TypeTaskToggled, task, userID, version))
	return task, nil
}

// SetNote replaces a task's note. Only the task's creator may do this.
func (s *Service) SetNote(ctx context.Context, userID string, taskID uuid.UUID, note string) (*model.Task, error) {
	if err := validateNote(note); err != nil {
		return nil, err
	}

	task, err := s.authorizeTask(ctx, userID, taskID, policy.ActionEditNote)
	if err != nil {
		return nil, err
	}

	version, err := s.mutate(ctx, task.WorldID, func(txRepo Repository) error {
		affected, err := txRepo.SetNote(ctx, task.ID, userID, note)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	task.Note = note

	s.bus.Publish(events.NewTaskEvent(events.TypeTaskNoteEdited, task, userID, version))
	return task, nil
}

// DeleteTask deletes a task. The creator or the world owner may do this.
func (s *Service) DeleteTask(ctx context.Context, userID string, taskID uuid.UUID) error {
	task, err := s.authorizeTask(ctx, userID, taskID, policy.ActionDeleteTask)
	if err != nil {
		return err
	}

	version, err := s.mutate(ctx, task.WorldID, func(txRepo Repository) error {
		affected, err := txRepo.Delete(ctx, task.ID, task.WorldID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted",
		zap.String("world_id", task.WorldID.String()),
		zap.String("task_id", task.ID.String()),
		zap.String("user_id", userID),
	)
	s.bus.Publish(events.NewTaskEvent(events.TypeTaskDeleted, task, userID, version))
	return nil
}

// ListTasks returns a world's task list with its version.
func (s *Service) ListTasks(ctx context.Context, userID string, worldID uuid.UUID, orderBy OrderBy) (*model.TaskList, error) {
	if err := s.authorizeWorld(ctx, userID, worldID, policy.ActionViewWorld); err != nil {
		return nil, err
	}

	// Version is read before the rows, so a list is never labelled newer
	// than its contents.
	version, err := s.repo.Version(ctx, worldID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListByWorld(ctx, worldID, orderBy)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	return &model.TaskList{WorldID: worldID, Version: version, Tasks: tasks}, nil
}

// Reorder applies a full reorder batch and returns the new list version.
// Any accepted member may reorder any task. The batch must name exactly
// the world's current tasks with positions 0..n-1, and is applied in one
// transaction.
func (s *Service) Reorder(ctx context.Context, userID string, worldID uuid.UUID, updates []model.PositionUpdate) (int64, error) {
	if err := s.authorizeWorld(ctx, userID, worldID, policy.ActionReorderTasks); err != nil {
		return 0, err
	}

	if err := validateBatch(updates); err != nil {
		s.rejected("invalid")
		return 0, err
	}

	version, err := s.mutate(ctx, worldID, func(txRepo Repository) error {
		current, err := txRepo.ListIDs(ctx, worldID)
		if err != nil {
			return err
		}
		if !sameTaskSet(updates, current) {
			return ErrStaleTaskList
		}

		for _, u := range updates {
			affected, err := txRepo.SetPosition(ctx, u.TaskID, worldID, u.Position)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrStaleTaskList
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleTaskList) {
			s.rejected("stale")
		}
		return 0, err
	}

	s.logger.Info("tasks reordered",
		zap.String("world_id", worldID.String()),
		zap.String("user_id", userID),
		zap.Int("count", len(updates)),
		zap.Int64("version", version),
	)
	s.bus.Publish(events.NewTasksReorderedEvent(worldID, userID, len(updates), version))

	return version, nil
}

// ========== Helpers ==========

// mutate runs fn and the task list version bump in one transaction and
// returns the new version.
func (s *Service) mutate(ctx context.Context, worldID uuid.UUID, fn func(txRepo Repository) error) (int64, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)
	if err := fn(txRepo); err != nil {
		return 0, err
	}

	version, err := txRepo.BumpVersion(ctx, worldID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return version, nil
}

// authorizeWorld checks the policy for a world-scoped action.
func (s *Service) authorizeWorld(ctx context.Context, userID string, worldID uuid.UUID, action policy.Action) error {
	if _, err := s.members.GetWorld(ctx, worldID); err != nil {
		if apperrors.IsNotFound(err) {
			return ErrWorldNotFound
		}
		return err
	}

	caller, err := s.membershipOf(ctx, worldID, userID)
	if err != nil {
		return err
	}
	return policy.Check(caller, action, policy.Target{WorldID: worldID})
}

// authorizeTask loads a task and checks the policy for a task-scoped action.
func (s *Service) authorizeTask(ctx context.Context, userID string, taskID uuid.UUID, action policy.Action) (*model.Task, error) {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	caller, err := s.membershipOf(ctx, task.WorldID, userID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(caller, action, policy.Target{
		WorldID:       task.WorldID,
		TaskCreatorID: task.CreatorID,
	}); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) membershipOf(ctx context.Context, worldID uuid.UUID, userID string) (*model.Membership, error) {
	m, err := s.members.FindMembership(ctx, worldID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.RecordReorderRejected(reason)
	}
}
