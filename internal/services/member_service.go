package services

import (
	"context"
	"time"

	"github.com/librarium/backend/internal/models"
)

// MemberDashboard is what the member dashboard page shows: the member's own
// loans plus stats computed from them in-process (no aggregation queries).
type MemberDashboard struct {
	Loans *MemberLoans   `json:"loans"`
	Stats DashboardStats `json:"stats"`
}

// MemberLoans splits a member's loans into open and returned
type MemberLoans struct {
	Borrowed []*models.BookLoan `json:"borrowed"`
	Returned []*models.BookLoan `json:"returned"`
}

// DashboardStats summarizes a member's borrowing activity
type DashboardStats struct {
	TotalBorrowed int `json:"total_borrowed"`
	OverdueBooks  int `json:"overdue_books"`
	TotalFineDue  int `json:"total_fine_due"`
}

// memberService implements the member dashboard view
type memberService struct {
	loans LoanHistoryRepository
	now   func() time.Time
}

// NewMemberService creates a new member service
func NewMemberService(loans LoanHistoryRepository) *memberService {
	return &memberService{
		loans: loans,
		now:   time.Now,
	}
}

// Dashboard assembles the dashboard for the given member
func (s *memberService) Dashboard(ctx context.Context, memberID int) (*MemberDashboard, error) {
	loans, err := s.loans.ListByUser(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dash := &MemberDashboard{Loans: &MemberLoans{}}
	for _, loan := range loans {
		if loan.IsReturned {
			dash.Loans.Returned = append(dash.Loans.Returned, loan)
			continue
		}
		dash.Loans.Borrowed = append(dash.Loans.Borrowed, loan)
		dash.Stats.TotalBorrowed++
		if loan.Overdue(now) {
			dash.Stats.OverdueBooks++
			dash.Stats.TotalFineDue += OverdueFine(loan.DueDate, now)
		}
	}

	return dash, nil
}
