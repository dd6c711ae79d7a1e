package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
)

const projectColumns = `id, buyer_id, title, description, created, updated`

func (r *SQLiteRepo) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("project is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO projects (buyer_id, title, description, created, updated) VALUES (?, ?, ?, ?, ?)`, p.BuyerID, p.Title, p.Description, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	var p models.Project
	if err := row.Scan(&p.ID, &p.BuyerID, &p.Title, &p.Description, &p.Created, &p.Updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &p, nil
}

func (r *SQLiteRepo) ListProjectsByBuyer(ctx context.Context, buyerID int64) ([]models.Project, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+projectColumns+` FROM projects WHERE buyer_id = ? ORDER BY id`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.BuyerID, &p.Title, &p.Description, &p.Created, &p.Updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}

	res, err := r.conn.Exec(ctx, `UPDATE projects SET title = ?, description = ?, updated = ? WHERE id = ?`, p.Title, p.Description, now(), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepo) DeleteProject(ctx context.Context, id int64) error {
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		var started int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE project_id = ? AND status <> ?`, id, string(models.StatusTodo)).Scan(&started); err != nil {
			return fmt.Errorf("count started tasks: %w", err)
		}
		if started > 0 {
			return repository.ErrStale
		}

		// tasks go with the project through ON DELETE CASCADE
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}

		return nil
	})
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrStale
	}

	return nil
}
