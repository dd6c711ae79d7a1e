package marketplace

import (
	"context"
	"fmt"

	"github.com/garnizeh/devmarket/internal/policy"
	"github.com/garnizeh/devmarket/pkg/models"
)

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, caller *models.User) (*models.User, error) {
	return policy.Authorize(caller, models.RoleBuyer, models.RoleDeveloper, models.RoleAdmin)
}

// ListUsers returns every account. Admin only.
func (s *Service) ListUsers(ctx context.Context, caller *models.User) ([]models.User, error) {
	if _, err := policy.Authorize(caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListDevelopers returns the accounts a buyer can assign tasks to.
func (s *Service) ListDevelopers(ctx context.Context, caller *models.User) ([]models.User, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer, models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsersByRole(ctx, models.RoleDeveloper)
	if err != nil {
		return nil, fmt.Errorf("list developers: %w", err)
	}
	return users, nil
}
