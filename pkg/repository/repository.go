package repository

import (
	"context"
	"errors"

	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/shopspring/decimal"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Getters return (nil, nil) when the row does not exist.

var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned when a conditional update matched no row because
	// the record changed (or vanished) since it was read.
	ErrStale = errors.New("stale record")
)

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type ProjectRepo interface {
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjectsByBuyer(ctx context.Context, buyerID int64) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	// DeleteProject removes the project and its tasks. It fails with ErrStale
	// when any task of the project has left the todo status.
	DeleteProject(ctx context.Context, id int64) error
}

type TaskRepo interface {
	CreateTask(ctx context.Context, t *models.Task) (int64, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasksByBuyer(ctx context.Context, buyerID int64) ([]models.Task, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error)
	ListTasksByDeveloper(ctx context.Context, developerID int64) ([]models.Task, error)
	// UpdateTaskDetails rewrites title, description, rate and assignee of a
	// task that is still todo; ErrStale otherwise.
	UpdateTaskDetails(ctx context.Context, t *models.Task) error
	// DeleteTask deletes a task that is still todo; ErrStale otherwise.
	DeleteTask(ctx context.Context, id int64) error
	// TransitionTask moves a task assigned to developerID from one status to
	// another; apperr.ErrInvalidTransition for a move the lifecycle forbids,
	// ErrStale when the current status is not from.
	TransitionTask(ctx context.Context, id, developerID int64, from, to models.TaskStatus) error
	// SubmitTask records hours and the deliverable key and moves the task to
	// submitted in one statement; ErrStale when the task is not todo or
	// in_progress or not assigned to developerID.
	SubmitTask(ctx context.Context, id, developerID int64, hours decimal.Decimal, deliverableKey string) error
}

type PaymentRepo interface {
	// PayTask inserts the payment and moves its task from submitted to paid
	// atomically; ErrStale when the task is no longer submitted.
	PayTask(ctx context.Context, p *models.Payment) (int64, error)
	GetPaymentByTask(ctx context.Context, taskID int64) (*models.Payment, error)
	ListPaymentsByBuyer(ctx context.Context, buyerID int64) ([]models.Payment, error)
}

type StatsRepo interface {
	Stats(ctx context.Context) (*models.Stats, error)
}
