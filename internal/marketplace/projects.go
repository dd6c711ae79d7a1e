package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/policy"
	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
)

type ProjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (in *ProjectInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validationf("title is required")
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, caller *models.User, in ProjectInput) (*models.Project, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	p := &models.Project{BuyerID: caller.ID, Title: in.Title, Description: in.Description}
	id, err := s.repo.CreateProject(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	return s.ownedProject(ctx, caller.ID, id)
}

func (s *Service) ListProjects(ctx context.Context, caller *models.User) ([]models.Project, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}

	projects, err := s.repo.ListProjectsByBuyer(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *Service) GetProject(ctx context.Context, caller *models.User, id int64) (*models.Project, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}
	return s.ownedProject(ctx, caller.ID, id)
}

func (s *Service) UpdateProject(ctx context.Context, caller *models.User, id int64, in ProjectInput) (*models.Project, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	p, err := s.ownedProject(ctx, caller.ID, id)
	if err != nil {
		return nil, err
	}

	p.Title, p.Description = in.Title, in.Description
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperr.NotFoundf("project %d", id)
		}
		return nil, fmt.Errorf("update project: %w", err)
	}

	return s.ownedProject(ctx, caller.ID, id)
}

// DeleteProject removes a project together with its tasks. It is refused
// with apperr.ErrTaskLocked while any task has left todo.
func (s *Service) DeleteProject(ctx context.Context, caller *models.User, id int64) error {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return err
	}
	if _, err := s.ownedProject(ctx, caller.ID, id); err != nil {
		return err
	}

	if err := s.repo.DeleteProject(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return apperr.TaskLockedf("project %d has tasks that are started, submitted or paid", id)
		}
		return fmt.Errorf("delete project: %w", err)
	}

	s.logger.Info("project deleted", "project_id", id, "caller_id", caller.ID)
	return nil
}
