package services

import (
	"context"
	"time"

	"github.com/librarium/backend/internal/models"
	"go.uber.org/zap"
)

// FineDailyRate is the fine accrued per full overdue day, in minor currency units
const FineDailyRate = 50

// LoanRepository is the interface that wraps loan lifecycle data access
type LoanRepository interface {
	// Borrow inserts a loan and decrements the book's available copies in one
	// transaction. Returns models.ErrBookUnavailable when no copy is left.
	Borrow(ctx context.Context, loan *models.BookLoan) error
	// GetByID retrieves a loan. Returns models.ErrNotFound when missing.
	GetByID(ctx context.Context, loanID int) (*models.BookLoan, error)
	// Return closes a loan, restores the copy and records the fine in one
	// transaction. Returns models.ErrLoanAlreadyReturned for a closed loan.
	Return(ctx context.Context, loanID, bookID int, returnedAt time.Time, fineAmount int) error
	// ListOverdue retrieves open loans past their due date.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.BookLoan, error)
	// UpdateFineAmount sets the accrued fine on an open loan.
	UpdateFineAmount(ctx context.Context, loanID, amount int) error
}

// FineRepository is the interface that wraps fine payment data access
type FineRepository interface {
	// MarkPaid records payment. Returns models.ErrNotFound for unknown or
	// already-paid fines.
	MarkPaid(ctx context.Context, fineID int, paidAt time.Time) error
}

// loanService implements the borrow/return/fine lifecycle
type loanService struct {
	loanRepo LoanRepository
	fineRepo FineRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(loanRepo LoanRepository, fineRepo FineRepository, logger *zap.Logger) *loanService {
	return &loanService{
		loanRepo: loanRepo,
		fineRepo: fineRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Borrow creates a loan for the user after validating the due date
func (s *loanService) Borrow(ctx context.Context, userID, bookID int, dueDate time.Time) (*models.BookLoan, error) {
	loan := &models.BookLoan{
		UserID:       userID,
		BookID:       bookID,
		BorrowedDate: s.now(),
		DueDate:      dueDate,
	}

	if err := loan.Validate(); err != nil {
		return nil, err
	}

	if err := s.loanRepo.Borrow(ctx, loan); err != nil {
		return nil, err
	}

	s.logger.Info("book borrowed",
		zap.Int("loanId", loan.ID),
		zap.Int("userId", userID),
		zap.Int("bookId", bookID))
	return loan, nil
}

// Return closes the loan and records a fine when it is returned late
func (s *loanService) Return(ctx context.Context, loanID int) (*models.BookLoan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.IsReturned {
		return nil, models.ErrLoanAlreadyReturned
	}

	returnedAt := s.now()
	fine := OverdueFine(loan.DueDate, returnedAt)

	if err := s.loanRepo.Return(ctx, loanID, loan.BookID, returnedAt, fine); err != nil {
		return nil, err
	}

	loan.ReturnedDate = &returnedAt
	loan.IsReturned = true
	loan.FineAmount = fine

	s.logger.Info("book returned",
		zap.Int("loanId", loanID),
		zap.Int("fineAmount", fine))
	return loan, nil
}

// PayFine records payment of a fine
func (s *loanService) PayFine(ctx context.Context, fineID int) error {
	return s.fineRepo.MarkPaid(ctx, fineID, s.now())
}

// OverdueFine computes the fine for a loan due at dueDate and settled at asOf.
// Partial days count as a full day; a loan settled on time owes nothing.
func OverdueFine(dueDate, asOf time.Time) int {
	if !asOf.After(dueDate) {
		return 0
	}
	days := int(asOf.Sub(dueDate).Hours()/24) + 1
	return days * FineDailyRate
}
