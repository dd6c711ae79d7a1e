// Package marketplace implements the buyer/developer/admin operations on
// projects, tasks and payments. Every operation takes the authenticated
// caller explicitly, checks its role first and then verifies ownership of the
// resources it touches. Resources the caller may not see are reported as
// apperr.ErrNotFound.
package marketplace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/storage"
	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
)

// Repo is the persistence the service needs.
type Repo interface {
	repository.UserRepo
	repository.ProjectRepo
	repository.TaskRepo
	repository.PaymentRepo
	repository.StatsRepo
}

type Service struct {
	repo      Repo
	files     storage.Store
	maxUpload int64
	logger    *slog.Logger
}

// NewService wires the service. maxUpload bounds the size of a submitted
// deliverable in bytes.
func NewService(repo Repo, files storage.Store, maxUpload int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, files: files, maxUpload: maxUpload, logger: logger}
}

func (s *Service) logTransition(task *models.Task, to models.TaskStatus, caller *models.User) {
	s.logger.Info("task transition",
		slog.Int64("task_id", task.ID),
		slog.String("from", string(task.Status)),
		slog.String("to", string(to)),
		slog.Int64("caller_id", caller.ID),
	)
}

// ownedProject loads a project owned by buyerID.
func (s *Service) ownedProject(ctx context.Context, buyerID, projectID int64) (*models.Project, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p == nil || p.BuyerID != buyerID {
		return nil, apperr.NotFoundf("project %d", projectID)
	}
	return p, nil
}

// visibleTask loads a task the caller may see: buyers see tasks of their own
// projects, developers the tasks assigned to them.
func (s *Service) visibleTask(ctx context.Context, caller *models.User, taskID int64) (*models.Task, error) {
	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFoundf("task %d", taskID)
	}

	switch caller.Role {
	case models.RoleBuyer:
		if t.BuyerID == caller.ID {
			return t, nil
		}
	case models.RoleDeveloper:
		if t.AssignedTo(caller.ID) {
			return t, nil
		}
	}

	return nil, apperr.NotFoundf("task %d", taskID)
}
