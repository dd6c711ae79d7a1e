package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/ledger"
	"github.com/garnizeh/devmarket/internal/lifecycle"
	"github.com/garnizeh/devmarket/internal/policy"
	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
)

// PayTask pays a submitted task of one of the caller's projects. The amount
// is hourly rate times reported hours. A task is paid at most once.
func (s *Service) PayTask(ctx context.Context, caller *models.User, taskID int64) (*models.Payment, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}

	t, err := s.ownedTask(ctx, caller.ID, taskID)
	if err != nil {
		return nil, err
	}
	to, err := lifecycle.Target(t.Status, lifecycle.ActionPay)
	if err != nil {
		return nil, err
	}
	if !t.HoursSpent.Valid {
		return nil, apperr.InvalidTransitionf("task %d has no reported hours", taskID)
	}

	amount, err := ledger.Amount(t.HourlyRate, t.HoursSpent.Decimal)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{TaskID: taskID, BuyerID: caller.ID, Amount: amount}
	if _, err := s.repo.PayTask(ctx, p); err != nil {
		if errors.Is(err, repository.ErrStale) || errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.InvalidTransitionf("task %d is no longer %s", taskID, t.Status)
		}
		return nil, fmt.Errorf("pay task: %w", err)
	}
	s.logTransition(t, to, caller)
	s.logger.Info("payment recorded",
		slog.Int64("payment_id", p.ID),
		slog.Int64("task_id", taskID),
		slog.String("amount", p.Amount.StringFixed(ledger.Scale)),
	)

	return p, nil
}

// ListPayments returns the payments the caller made.
func (s *Service) ListPayments(ctx context.Context, caller *models.User) ([]models.Payment, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer); err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPaymentsByBuyer(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// TaskPayment returns the payment of a task the caller can see: the owning
// buyer or the assigned developer.
func (s *Service) TaskPayment(ctx context.Context, caller *models.User, taskID int64) (*models.Payment, error) {
	if _, err := policy.Authorize(caller, models.RoleBuyer, models.RoleDeveloper); err != nil {
		return nil, err
	}

	if _, err := s.visibleTask(ctx, caller, taskID); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPaymentByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p == nil {
		return nil, apperr.NotFoundf("payment for task %d", taskID)
	}
	return p, nil
}

// Stats returns marketplace-wide totals. Admin only.
func (s *Service) Stats(ctx context.Context, caller *models.User) (*models.Stats, error) {
	if _, err := policy.Authorize(caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	st, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
