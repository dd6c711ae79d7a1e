package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/devmarket/internal/lifecycle"
	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
	"github.com/shopspring/decimal"
)

// PayTask records the payment and marks its task paid in one transaction.
// The status update is conditional on the task still being submitted, so of
// two concurrent attempts only one can insert a payment.
func (r *SQLiteRepo) PayTask(ctx context.Context, p *models.Payment) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("payment is nil")
	}

	var id int64
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		in, sources := statusIn(lifecycle.Sources(lifecycle.ActionPay))
		args := append([]any{string(models.StatusPaid), ts, p.TaskID}, sources...)
		res, err := tx.ExecContext(ctx, `UPDATE tasks SET status = ?, updated = ? WHERE id = ? AND hours_spent IS NOT NULL AND status IN `+in, args...)
		if err != nil {
			return fmt.Errorf("mark task paid: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `INSERT INTO payments (task_id, buyer_id, amount, created) VALUES (?, ?, ?, ?)`,
			p.TaskID, p.BuyerID, p.Amount.String(), ts)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("insert payment: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		p.Created = ts

		return nil
	})
	if err != nil {
		return 0, err
	}

	p.ID = id
	r.logger.Debug("payment recorded", "payment_id", id, "task_id", p.TaskID)

	return id, nil
}

func (r *SQLiteRepo) GetPaymentByTask(ctx context.Context, taskID int64) (*models.Payment, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, task_id, buyer_id, amount, created FROM payments WHERE task_id = ?`, taskID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return p, nil
}

func (r *SQLiteRepo) ListPaymentsByBuyer(ctx context.Context, buyerID int64) ([]models.Payment, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, task_id, buyer_id, amount, created FROM payments WHERE buyer_id = ? ORDER BY id`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, *p)
	}

	return out, rows.Err()
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var amount string
	if err := row.Scan(&p.ID, &p.TaskID, &p.BuyerID, &amount, &p.Created); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	p.Amount = d

	return &p, nil
}
