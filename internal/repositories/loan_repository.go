package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/librarium/backend/internal/models"
	"go.uber.org/zap"
)

// loanRepository implements data access for the book_loans table. Borrow and
// Return also touch books.available_copies and fines inside one transaction,
// since the loan lifecycle and the copy counter must move together.
type loanRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *sql.DB, logger *zap.Logger) *loanRepository {
	return &loanRepository{
		db:     db,
		logger: logger,
	}
}

// Borrow inserts a loan and decrements the book's available copies in one
// transaction. The guarded UPDATE keeps available_copies >= 0 under
// concurrent borrows; when no copy is left it returns ErrBookUnavailable.
func (r *loanRepository) Borrow(ctx context.Context, loan *models.BookLoan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin borrow transaction", zap.Error(err))
		return fmt.Errorf("failed to begin borrow transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies - 1 WHERE id = ? AND available_copies > 0 AND is_deleted = 0`,
		loan.BookID)
	if err != nil {
		r.logger.Error("failed to decrement available copies", zap.Error(err), zap.Int("bookId", loan.BookID))
		return fmt.Errorf("failed to decrement available copies: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrBookUnavailable
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO book_loans (user_id, book_id, borrowed_date, due_date, fine_amount, is_returned)
		 VALUES (?, ?, ?, ?, 0, 0)`,
		loan.UserID, loan.BookID, loan.BorrowedDate, loan.DueDate)
	if err != nil {
		r.logger.Error("failed to insert loan", zap.Error(err))
		return fmt.Errorf("failed to insert loan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit borrow transaction", zap.Error(err))
		return fmt.Errorf("failed to commit borrow transaction: %w", err)
	}

	loan.ID = int(id)
	return nil
}

// GetByID retrieves a loan by ID
func (r *loanRepository) GetByID(ctx context.Context, loanID int) (*models.BookLoan, error) {
	query := `
		SELECT user_id, book_id, borrowed_date, due_date, returned_date, fine_amount, is_returned
		FROM book_loans
		WHERE id = ? AND is_deleted = 0
		LIMIT 1
	`

	loan := &models.BookLoan{ID: loanID}
	err := r.db.QueryRowContext(ctx, query, loanID).Scan(
		&loan.UserID,
		&loan.BookID,
		&loan.BorrowedDate,
		&loan.DueDate,
		&loan.ReturnedDate,
		&loan.FineAmount,
		&loan.IsReturned,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get loan by id", zap.Error(err), zap.Int("loanId", loanID))
		return nil, fmt.Errorf("failed to get loan by id: %w", err)
	}

	return loan, nil
}

// Return closes a loan: sets the returned date, restores the book's available
// copy and records a fine when fineAmount > 0, all in one transaction. The
// guarded UPDATE on is_returned makes returning an already-returned loan fail
// with ErrLoanAlreadyReturned instead of double-incrementing the copy counter.
func (r *loanRepository) Return(ctx context.Context, loanID, bookID int, returnedAt time.Time, fineAmount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin return transaction", zap.Error(err))
		return fmt.Errorf("failed to begin return transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE book_loans SET returned_date = ?, is_returned = 1, fine_amount = ? WHERE id = ? AND is_returned = 0`,
		returnedAt, fineAmount, loanID)
	if err != nil {
		r.logger.Error("failed to close loan", zap.Error(err), zap.Int("loanId", loanID))
		return fmt.Errorf("failed to close loan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrLoanAlreadyReturned
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies + 1 WHERE id = ? AND available_copies < total_copies`,
		bookID)
	if err != nil {
		r.logger.Error("failed to increment available copies", zap.Error(err), zap.Int("bookId", bookID))
		return fmt.Errorf("failed to increment available copies: %w", err)
	}

	if fineAmount > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO fines (loan_id, amount, is_paid) VALUES (?, ?, 0)`,
			loanID, fineAmount)
		if err != nil {
			r.logger.Error("failed to insert fine", zap.Error(err), zap.Int("loanId", loanID))
			return fmt.Errorf("failed to insert fine: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit return transaction", zap.Error(err))
		return fmt.Errorf("failed to commit return transaction: %w", err)
	}

	return nil
}

// ListByUser retrieves a user's loans with book titles, newest first
func (r *loanRepository) ListByUser(ctx context.Context, userID int) ([]*models.BookLoan, error) {
	query := `
		SELECT l.id, l.book_id, b.title, l.borrowed_date, l.due_date, l.returned_date, l.fine_amount, l.is_returned
		FROM book_loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.user_id = ? AND l.is_deleted = 0
		ORDER BY l.borrowed_date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list loans by user", zap.Error(err), zap.Int("userId", userID))
		return nil, fmt.Errorf("failed to list loans by user: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows, func(loan *models.BookLoan) []any {
		loan.UserID = userID
		return []any{&loan.ID, &loan.BookID, &loan.BookTitle, &loan.BorrowedDate, &loan.DueDate, &loan.ReturnedDate, &loan.FineAmount, &loan.IsReturned}
	})
}

// ListActiveByBook retrieves the unreturned loans for a book, oldest first
func (r *loanRepository) ListActiveByBook(ctx context.Context, bookID int) ([]*models.BookLoan, error) {
	query := `
		SELECT l.id, l.user_id, l.borrowed_date, l.due_date, l.fine_amount
		FROM book_loans l
		WHERE l.book_id = ? AND l.is_returned = 0 AND l.is_deleted = 0
		ORDER BY l.borrowed_date
	`

	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		r.logger.Error("failed to list active loans by book", zap.Error(err), zap.Int("bookId", bookID))
		return nil, fmt.Errorf("failed to list active loans by book: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows, func(loan *models.BookLoan) []any {
		loan.BookID = bookID
		return []any{&loan.ID, &loan.UserID, &loan.BorrowedDate, &loan.DueDate, &loan.FineAmount}
	})
}

// ListOverdue retrieves unreturned loans past their due date as of the given time
func (r *loanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.BookLoan, error) {
	query := `
		SELECT l.id, l.user_id, l.book_id, l.borrowed_date, l.due_date, l.fine_amount
		FROM book_loans l
		WHERE l.is_returned = 0 AND l.due_date < ? AND l.is_deleted = 0
	`

	rows, err := r.db.QueryContext(ctx, query, asOf)
	if err != nil {
		r.logger.Error("failed to list overdue loans", zap.Error(err))
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows, func(loan *models.BookLoan) []any {
		return []any{&loan.ID, &loan.UserID, &loan.BookID, &loan.BorrowedDate, &loan.DueDate, &loan.FineAmount}
	})
}

// UpdateFineAmount sets the accrued fine amount on an open loan
func (r *loanRepository) UpdateFineAmount(ctx context.Context, loanID, amount int) error {
	query := `UPDATE book_loans SET fine_amount = ? WHERE id = ? AND is_returned = 0`

	if _, err := r.db.ExecContext(ctx, query, amount, loanID); err != nil {
		r.logger.Error("failed to update fine amount", zap.Error(err), zap.Int("loanId", loanID))
		return fmt.Errorf("failed to update fine amount: %w", err)
	}

	return nil
}

// scanLoans collects loan rows using the column set provided by dest
func scanLoans(rows *sql.Rows, dest func(*models.BookLoan) []any) ([]*models.BookLoan, error) {
	var loans []*models.BookLoan
	for rows.Next() {
		loan := &models.BookLoan{}
		if err := rows.Scan(dest(loan)...); err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan rows: %w", err)
	}

	return loans, nil
}
