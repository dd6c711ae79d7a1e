package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/lifecycle"
	"github.com/garnizeh/devmarket/internal/policy"
	"github.com/garnizeh/devmarket/internal/storage"
	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
	"github.com/shopspring/decimal"
)

// TaskInput carries the buyer-editable fields of a task. ProjectID is only
// read on creation.
type TaskInput struct {
	ProjectID   int64           `json:"project_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	DeveloperID *int64          `json:"developer_id"`
}

func (s *Service) checkTaskInput(ctx context.Context, in *TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validationf("title is required")
	}
	if !in.HourlyRate.IsPositive() {
		return apperr.Validationf("hourly rate must be positive, got %s", in.HourlyRate)
	}
	if in.DeveloperID == nil {
		return nil
	}

	dev, err := s.repo.GetUserByID(ctx, *in.DeveloperID)
	if err != nil {
		return fmt.Errorf("get developer: %w", err)
	}
	if dev == nil || dev.Role != models.RoleDeveloper {
		return apperr.Validationf("user %d is not a developer", *in.DeveloperID)
	}
	return nil
}

// ownedTask loads a task of one of buyerID's projects.
func (s *Service) ownedTask(ctx context.Context, buyerID, taskID int64) (*models.Task, error) {
	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil || t.BuyerID != buyerID {
		return nil, apperr.NotFoundf("task %d", taskID)
	}
	return t, nil
}

// assignedTask loads a task assigned to developerID.
func (s *Service) assignedTask(ctx context.Context, developerID, taskID int64) (*models.Task, error) {
	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil || !t.AssignedTo(developerID) {
		return nil, apperr.NotFoundf("task %d", taskID)
	}
	return t, nil
}

func (s *Service) CreateTask(ctx context.Context, caller *models.User, in TaskInput) (*models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}
	if _, err := s.ownedProject(ctx, caller.ID, in.ProjectID); err != nil {
		return nil, err
	}
	if err := s.checkTaskInput(ctx, &in); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateTask(ctx, &models.Task{
		ProjectID:   in.ProjectID,
		DeveloperID: in.DeveloperID,
		Title:       in.Title,
		Description: in.Description,
		HourlyRate:  in.HourlyRate,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return s.ownedTask(ctx, caller.ID, id)
}

// ListTasks returns every task in the caller's projects.
func (s *Service) ListTasks(ctx context.Context, caller *models.User) ([]models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTasksByBuyer(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Service) ListProjectTasks(ctx context.Context, caller *models.User, projectID int64) ([]models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}
	if _, err := s.ownedProject(ctx, caller.ID, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	return tasks, nil
}

// ListMyTasks returns the tasks assigned to the calling developer.
func (s *Service) ListMyTasks(ctx context.Context, caller *models.User) ([]models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleDeveloper); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTasksByDeveloper(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	return tasks, nil
}

func (s *Service) GetTask(ctx context.Context, caller *models.User, id int64) (*models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer, models.RoleDeveloper); err != nil {
		return nil, err
	}
	return s.visibleTask(ctx, caller, id)
}

// UpdateTask rewrites the editable fields of a todo task.
func (s *Service) UpdateTask(ctx context.Context, caller *models.User, id int64, in TaskInput) (*models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}

	t, err := s.ownedTask(ctx, caller.ID, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckEditable(t.Status); err != nil {
		return nil, err
	}
	if err := s.checkTaskInput(ctx, &in); err != nil {
		return nil, err
	}

	t.Title, t.Description, t.HourlyRate, t.DeveloperID = in.Title, in.Description, in.HourlyRate, in.DeveloperID
	if err := s.repo.UpdateTaskDetails(ctx, t); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperr.TaskLockedf("task %d changed status while being edited", id)
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	return s.ownedTask(ctx, caller.ID, id)
}

func (s *Service) DeleteTask(ctx context.Context, caller *models.User, id int64) error {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return err
	}

	t, err := s.ownedTask(ctx, caller.ID, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckEditable(t.Status); err != nil {
		return err
	}

	if err := s.repo.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return apperr.TaskLockedf("task %d changed status while being deleted", id)
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.logger.Info("task deleted", slog.Int64("task_id", id), slog.Int64("caller_id", caller.ID))
	return nil
}

// StartTask moves an assigned todo task to in_progress.
func (s *Service) StartTask(ctx context.Context, caller *models.User, id int64) (*models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleDeveloper); err != nil {
		return nil, err
	}

	t, err := s.assignedTask(ctx, caller.ID, id)
	if err != nil {
		return nil, err
	}
	to, err := lifecycle.Target(t.Status, lifecycle.ActionStart)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TransitionTask(ctx, id, caller.ID, t.Status, to); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperr.InvalidTransitionf("task %d is no longer %s", id, t.Status)
		}
		return nil, fmt.Errorf("start task: %w", err)
	}
	s.logTransition(t, to, caller)

	return s.assignedTask(ctx, caller.ID, id)
}

// SubmitTask stores the deliverable and moves the task to submitted with the
// reported hours. The deliverable is written before the status changes and
// removed again if the status change is lost to a concurrent request.
func (s *Service) SubmitTask(ctx context.Context, caller *models.User, id int64, hours decimal.Decimal, filename string, r io.Reader) (*models.Task, error) {
	if _, err := policy.Authorize(caller, models.RoleDeveloper); err != nil {
		return nil, err
	}

	t, err := s.assignedTask(ctx, caller.ID, id)
	if err != nil {
		return nil, err
	}
	to, err := lifecycle.Target(t.Status, lifecycle.ActionSubmit)
	if err != nil {
		return nil, err
	}
	if !hours.IsPositive() {
		return nil, apperr.Validationf("hours must be positive, got %s", hours)
	}

	key := storage.NewKey(id, filename)
	if _, err := s.files.Put(ctx, key, r, s.maxUpload); err != nil {
		return nil, err
	}

	if err := s.repo.SubmitTask(ctx, id, caller.ID, hours, key); err != nil {
		if derr := s.files.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.logger.Error("remove orphaned deliverable", slog.String("key", key), slog.Any("err", derr))
		}
		if errors.Is(err, repository.ErrStale) {
			return nil, apperr.InvalidTransitionf("task %d is no longer %s", id, t.Status)
		}
		return nil, fmt.Errorf("submit task: %w", err)
	}
	s.logTransition(t, to, caller)

	return s.assignedTask(ctx, caller.ID, id)
}

// DownloadDeliverable opens the deliverable of a paid task. The caller must
// close the returned reader.
func (s *Service) DownloadDeliverable(ctx context.Context, caller *models.User, id int64) (io.ReadCloser, string, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, "", err
	}

	t, err := s.ownedTask(ctx, caller.ID, id)
	if err != nil {
		return nil, "", err
	}
	if err := lifecycle.CheckDownloadable(t.Status); err != nil {
		return nil, "", err
	}
	if t.DeliverableKey == nil {
		return nil, "", apperr.ErrArtifactMissing
	}

	rc, err := s.files.Open(ctx, *t.DeliverableKey)
	if err != nil {
		return nil, "", err
	}
	return rc, *t.DeliverableKey, nil
}
