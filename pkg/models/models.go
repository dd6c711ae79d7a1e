package models

import (
	"github.com/shopspring/decimal"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

type Role string

const (
	RoleBuyer     Role = "buyer"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleDeveloper, RoleAdmin:
		return true
	default:
		return false
	}
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusSubmitted  TaskStatus = "submitted"
	StatusPaid       TaskStatus = "paid"
)

type User struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	Created      int64  `json:"created" db:"created"`
}

type Project struct {
	ID          int64  `json:"id" db:"id"`
	BuyerID     int64  `json:"buyer_id" db:"buyer_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Created     int64  `json:"created" db:"created"`
	Updated     int64  `json:"updated" db:"updated"`
}

// Task is a unit of paid work inside a project. HoursSpent and DeliverableKey
// are unset until the task is submitted and are always set together.
type Task struct {
	ID             int64               `json:"id" db:"id"`
	ProjectID      int64               `json:"project_id" db:"project_id"`
	DeveloperID    *int64              `json:"developer_id,omitempty" db:"developer_id"`
	Title          string              `json:"title" db:"title"`
	Description    string              `json:"description" db:"description"`
	HourlyRate     decimal.Decimal     `json:"hourly_rate" db:"hourly_rate"`
	HoursSpent     decimal.NullDecimal `json:"hours_spent" db:"hours_spent"`
	Status         TaskStatus          `json:"status" db:"status"`
	DeliverableKey *string             `json:"-" db:"deliverable_key"`
	Created        int64               `json:"created" db:"created"`
	Updated        int64               `json:"updated" db:"updated"`

	// BuyerID is the owner of the parent project; filled by joined reads.
	BuyerID int64 `json:"-" db:"buyer_id"`
}

// AssignedTo reports whether userID is the task's developer.
func (t *Task) AssignedTo(userID int64) bool {
	return t.DeveloperID != nil && *t.DeveloperID == userID
}

type Payment struct {
	ID      int64           `json:"id" db:"id"`
	TaskID  int64           `json:"task_id" db:"task_id"`
	BuyerID int64           `json:"buyer_id" db:"buyer_id"`
	Amount  decimal.Decimal `json:"amount" db:"amount"`
	Created int64           `json:"created" db:"created"`
}

type Stats struct {
	TotalProjects          int64           `json:"total_projects"`
	TotalTasks             int64           `json:"total_tasks"`
	CompletedTasks         int64           `json:"completed_tasks"`
	TotalPaymentsCompleted int64           `json:"total_payments_completed"`
	PendingPayments        int64           `json:"pending_payments"`
	TotalHoursLogged       decimal.Decimal `json:"total_hours_logged"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TotalBuyers            int64           `json:"total_buyers"`
	TotalDevelopers        int64           `json:"total_developers"`
}
