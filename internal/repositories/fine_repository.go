package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/librarium/backend/internal/models"
	"go.uber.org/zap"
)

// fineRepository implements data access for the fines table
type fineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFineRepository creates a new fine repository
func NewFineRepository(db *sql.DB, logger *zap.Logger) *fineRepository {
	return &fineRepository{
		db:     db,
		logger: logger,
	}
}

// ListByUser retrieves the fines attached to a user's loans, newest first
func (r *fineRepository) ListByUser(ctx context.Context, userID int) ([]*models.Fine, error) {
	query := `
		SELECT f.id, f.loan_id, f.amount, f.paid_date, f.is_paid
		FROM fines f
		JOIN book_loans l ON l.id = f.loan_id
		WHERE l.user_id = ? AND f.is_deleted = 0
		ORDER BY f.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list fines by user", zap.Error(err), zap.Int("userId", userID))
		return nil, fmt.Errorf("failed to list fines by user: %w", err)
	}
	defer rows.Close()

	var fines []*models.Fine
	for rows.Next() {
		fine := &models.Fine{}
		if err := rows.Scan(&fine.ID, &fine.LoanID, &fine.Amount, &fine.PaidDate, &fine.IsPaid); err != nil {
			r.logger.Error("failed to scan fine row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan fine row: %w", err)
		}
		fines = append(fines, fine)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("failed to iterate fine rows", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate fine rows: %w", err)
	}

	return fines, nil
}

// MarkPaid records payment of a fine. The guarded UPDATE keeps paid_date and
// is_paid moving together and makes paying twice an error rather than an
// overwrite of the original payment date.
func (r *fineRepository) MarkPaid(ctx context.Context, fineID int, paidAt time.Time) error {
	query := `UPDATE fines SET paid_date = ?, is_paid = 1 WHERE id = ? AND is_paid = 0 AND is_deleted = 0`

	result, err := r.db.ExecContext(ctx, query, paidAt, fineID)
	if err != nil {
		r.logger.Error("failed to mark fine paid", zap.Error(err), zap.Int("fineId", fineID))
		return fmt.Errorf("failed to mark fine paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}
