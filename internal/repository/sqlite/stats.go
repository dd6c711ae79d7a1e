package sqlite

import (
	"context"
	"fmt"

	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/shopspring/decimal"
)

// Stats aggregates marketplace-wide counters. Money and hours are stored as
// decimal text, so their sums are computed here rather than with SQL SUM.
func (r *SQLiteRepo) Stats(ctx context.Context) (*models.Stats, error) {
	var s models.Stats
	row := r.conn.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM projects),
		(SELECT COUNT(*) FROM tasks),
		(SELECT COUNT(*) FROM tasks WHERE status IN ('submitted', 'paid')),
		(SELECT COUNT(*) FROM payments),
		(SELECT COUNT(*) FROM tasks WHERE status = 'submitted'),
		(SELECT COUNT(*) FROM users WHERE role = 'buyer'),
		(SELECT COUNT(*) FROM users WHERE role = 'developer')`)
	if err := row.Scan(&s.TotalProjects, &s.TotalTasks, &s.CompletedTasks, &s.TotalPaymentsCompleted, &s.PendingPayments, &s.TotalBuyers, &s.TotalDevelopers); err != nil {
		return nil, fmt.Errorf("count stats: %w", err)
	}

	hours, err := r.sumDecimal(ctx, `SELECT hours_spent FROM tasks WHERE hours_spent IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("sum hours: %w", err)
	}
	revenue, err := r.sumDecimal(ctx, `SELECT amount FROM payments`)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	s.TotalHoursLogged = hours
	s.TotalRevenue = revenue

	return &s, nil
}

func (r *SQLiteRepo) sumDecimal(ctx context.Context, query string) (decimal.Decimal, error) {
	rows, err := r.conn.QueryRows(ctx, query)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse %q: %w", v, err)
		}
		total = total.Add(d)
	}

	return total, rows.Err()
}
