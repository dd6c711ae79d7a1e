package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/garnizeh/devmarket/internal/lifecycle"
	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/shopspring/decimal"
)

const taskSelect = `SELECT t.id, t.project_id, t.developer_id, t.title, t.description, t.hourly_rate, t.hours_spent, t.status, t.deliverable_key, t.created, t.updated, p.buyer_id
FROM tasks t JOIN projects p ON p.id = t.project_id`

func (r *SQLiteRepo) CreateTask(ctx context.Context, t *models.Task) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("task is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO tasks (project_id, developer_id, title, description, hourly_rate, status, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID, nullableID(t.DeveloperID), t.Title, t.Description, t.HourlyRate.String(), string(models.StatusTodo), ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	row := r.conn.QueryRow(ctx, taskSelect+` WHERE t.id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return t, nil
}

func (r *SQLiteRepo) ListTasksByBuyer(ctx context.Context, buyerID int64) ([]models.Task, error) {
	return r.listTasks(ctx, taskSelect+` WHERE p.buyer_id = ? ORDER BY t.id`, buyerID)
}

func (r *SQLiteRepo) ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	return r.listTasks(ctx, taskSelect+` WHERE t.project_id = ? ORDER BY t.id`, projectID)
}

func (r *SQLiteRepo) ListTasksByDeveloper(ctx context.Context, developerID int64) ([]models.Task, error) {
	return r.listTasks(ctx, taskSelect+` WHERE t.developer_id = ? ORDER BY t.id`, developerID)
}

func (r *SQLiteRepo) listTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateTaskDetails(ctx context.Context, t *models.Task) error {
	if t == nil {
		return fmt.Errorf("task is nil")
	}

	res, err := r.conn.Exec(ctx, `UPDATE tasks SET title = ?, description = ?, hourly_rate = ?, developer_id = ?, updated = ? WHERE id = ? AND status = ?`,
		t.Title, t.Description, t.HourlyRate.String(), nullableID(t.DeveloperID), now(), t.ID, string(models.StatusTodo))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepo) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM tasks WHERE id = ? AND status = ?`, id, string(models.StatusTodo))
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepo) TransitionTask(ctx context.Context, id, developerID int64, from, to models.TaskStatus) error {
	if err := lifecycle.Transition(from, to); err != nil {
		return err
	}

	res, err := r.conn.Exec(ctx, `UPDATE tasks SET status = ?, updated = ? WHERE id = ? AND developer_id = ? AND status = ?`,
		string(to), now(), id, developerID, string(from))
	if err != nil {
		return fmt.Errorf("transition task: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepo) SubmitTask(ctx context.Context, id, developerID int64, hours decimal.Decimal, deliverableKey string) error {
	in, sources := statusIn(lifecycle.Sources(lifecycle.ActionSubmit))
	args := append([]any{string(models.StatusSubmitted), hours.String(), deliverableKey, now(), id, developerID}, sources...)
	res, err := r.conn.Exec(ctx, `UPDATE tasks SET status = ?, hours_spent = ?, deliverable_key = ?, updated = ? WHERE id = ? AND developer_id = ? AND status IN `+in, args...)
	if err != nil {
		return fmt.Errorf("submit task: %w", err)
	}

	return expectOneRow(res)
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t         models.Task
		devID     sql.NullInt64
		status    string
		delivKey  sql.NullString
		rateText  string
		hoursText sql.NullString
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &devID, &t.Title, &t.Description, &rateText, &hoursText, &status, &delivKey, &t.Created, &t.Updated, &t.BuyerID); err != nil {
		return nil, err
	}

	rate, err := decimal.NewFromString(rateText)
	if err != nil {
		return nil, fmt.Errorf("parse hourly_rate %q: %w", rateText, err)
	}
	t.HourlyRate = rate

	if hoursText.Valid {
		hours, err := decimal.NewFromString(hoursText.String)
		if err != nil {
			return nil, fmt.Errorf("parse hours_spent %q: %w", hoursText.String, err)
		}
		t.HoursSpent = decimal.NewNullDecimal(hours)
	}
	if devID.Valid {
		v := devID.Int64
		t.DeveloperID = &v
	}
	if delivKey.Valid {
		v := delivKey.String
		t.DeliverableKey = &v
	}
	t.Status = models.TaskStatus(status)
	if !lifecycle.Valid(t.Status) {
		return nil, fmt.Errorf("task %d has unknown status %q", t.ID, status)
	}

	return &t, nil
}

// statusIn renders a parenthesised placeholder list for statuses.
func statusIn(statuses []models.TaskStatus) (string, []any) {
	args := make([]any, len(statuses))
	marks := make([]string, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
		marks[i] = "?"
	}
	return "(" + strings.Join(marks, ", ") + ")", args
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
