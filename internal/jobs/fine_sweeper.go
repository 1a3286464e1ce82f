// Package jobs holds background maintenance loops
package jobs

import (
	"context"
	"time"

	"github.com/librarium/backend/internal/models"
	"github.com/librarium/backend/internal/services"
	"go.uber.org/zap"
)

// OverdueLoanRepository defines the loan methods the sweeper needs
type OverdueLoanRepository interface {
	// ListOverdue takes open loans past their due date from the database
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.BookLoan, error)
	// UpdateFineAmount sets the accrued fine on an open loan
	UpdateFineAmount(ctx context.Context, loanID, amount int) error
}

// FineSweeper periodically recomputes the accrued fine on overdue loans so
// the amount shown on dashboards tracks the overdue days without waiting for
// the book to come back.
type FineSweeper struct {
	loanRepo OverdueLoanRepository
	logger   *zap.Logger
	ticker   *time.Ticker
	stopChan chan struct{}
}

// NewFineSweeper creates a new fine sweeper running at the given interval
func NewFineSweeper(loanRepo OverdueLoanRepository, logger *zap.Logger, interval time.Duration) *FineSweeper {
	return &FineSweeper{
		loanRepo: loanRepo,
		logger:   logger,
		ticker:   time.NewTicker(interval),
		stopChan: make(chan struct{}),
	}
}

// Start starts the sweeper loop
func (s *FineSweeper) Start() {
	s.logger.Info("Fine sweeper started")
	go s.run()
}

// Stop stops the sweeper
func (s *FineSweeper) Stop() {
	s.ticker.Stop()
	close(s.stopChan)
	s.logger.Info("Fine sweeper stopped")
}

func (s *FineSweeper) run() {
	ctx := context.Background()

	// Run immediately on start
	s.Sweep(ctx)

	for {
		select {
		case <-s.ticker.C:
			s.Sweep(ctx)
		case <-s.stopChan:
			return
		}
	}
}

// Sweep recomputes fine_amount for every overdue open loan
func (s *FineSweeper) Sweep(ctx context.Context) {
	now := time.Now()

	loans, err := s.loanRepo.ListOverdue(ctx, now)
	if err != nil {
		s.logger.Error("Failed to list overdue loans", zap.Error(err))
		return
	}

	for _, loan := range loans {
		accrued := services.OverdueFine(loan.DueDate, now)
		if accrued == loan.FineAmount {
			continue
		}
		if err := s.loanRepo.UpdateFineAmount(ctx, loan.ID, accrued); err != nil {
			s.logger.Error("Failed to update fine amount", zap.Error(err), zap.Int("loanId", loan.ID))
		}
	}

	if len(loans) > 0 {
		s.logger.Info("Fine sweep complete", zap.Int("overdueLoans", len(loans)))
	}
}
