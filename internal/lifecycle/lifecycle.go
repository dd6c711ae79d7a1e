// Package lifecycle encodes the task status machine:
//
//	todo -> in_progress -> submitted -> paid
//	todo ------------------^
//
// Status only moves forward and paid is terminal. Structural edits (title,
// description, rate, assignee, deletion) are only allowed while todo, and a
// deliverable is released only once the task is paid.
package lifecycle

import (
	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/pkg/models"
)

// Action is a lifecycle trigger.
type Action string

const (
	ActionStart  Action = "start"
	ActionSubmit Action = "submit"
	ActionPay    Action = "pay"
)

// Valid reports whether s is a known status.
func Valid(s models.TaskStatus) bool {
	switch s {
	case models.StatusTodo, models.StatusInProgress, models.StatusSubmitted, models.StatusPaid:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to models.TaskStatus) bool {
	switch from {
	case models.StatusTodo:
		return to == models.StatusInProgress || to == models.StatusSubmitted
	case models.StatusInProgress:
		return to == models.StatusSubmitted
	case models.StatusSubmitted:
		return to == models.StatusPaid
	default:
		return false
	}
}

// Transition validates a move from one status to another.
func Transition(from, to models.TaskStatus) error {
	if !isAllowedTransition(from, to) {
		return apperr.InvalidTransitionf("%s -> %s", from, to)
	}
	return nil
}

// Target returns the status reached by applying a to a task in status from.
func Target(from models.TaskStatus, a Action) (models.TaskStatus, error) {
	var to models.TaskStatus
	switch a {
	case ActionStart:
		to = models.StatusInProgress
	case ActionSubmit:
		to = models.StatusSubmitted
	case ActionPay:
		to = models.StatusPaid
	default:
		return "", apperr.InvalidTransitionf("unknown action %q", a)
	}

	if !isAllowedTransition(from, to) {
		return "", apperr.InvalidTransitionf("cannot %s a task in status %s", a, from)
	}
	return to, nil
}

// Sources lists the statuses from which a can be applied.
func Sources(a Action) []models.TaskStatus {
	switch a {
	case ActionStart:
		return []models.TaskStatus{models.StatusTodo}
	case ActionSubmit:
		return []models.TaskStatus{models.StatusTodo, models.StatusInProgress}
	case ActionPay:
		return []models.TaskStatus{models.StatusSubmitted}
	default:
		return nil
	}
}

// CheckEditable fails with apperr.ErrTaskLocked once work on the task started.
func CheckEditable(s models.TaskStatus) error {
	if s != models.StatusTodo {
		return apperr.TaskLockedf("task status is %s; only todo tasks can be changed", s)
	}
	return nil
}

// CheckDownloadable fails with apperr.ErrPaymentRequired until the task is paid.
func CheckDownloadable(s models.TaskStatus) error {
	if s != models.StatusPaid {
		return apperr.New(apperr.ErrPaymentRequired, "task status is %s; pay the task to download its deliverable", s)
	}
	return nil
}
