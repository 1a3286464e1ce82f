package models

import "time"

// BookLoan represents a borrowing transaction.
//
// Invariants: ReturnedDate is set iff IsReturned is true, and DueDate is
// strictly after BorrowedDate. FineAmount is stored in minor currency units.
type BookLoan struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	BookID       int        `json:"book_id"`
	BookTitle    string     `json:"book_title,omitempty"`
	BorrowedDate time.Time  `json:"borrowed_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
	FineAmount   int        `json:"fine_amount"`
	IsReturned   bool       `json:"is_returned"`
}

// Validate checks the loan date invariant before insert
func (l *BookLoan) Validate() error {
	if !l.DueDate.After(l.BorrowedDate) {
		return ErrInvalidDueDate
	}
	return nil
}

// Overdue reports whether the loan is past due and not yet returned at the given time
func (l *BookLoan) Overdue(now time.Time) bool {
	return !l.IsReturned && now.After(l.DueDate)
}

// Fine represents a monetary penalty tied to a loan.
//
// Invariant: PaidDate is set iff IsPaid is true. Amount is stored in minor
// currency units.
type Fine struct {
	ID       int        `json:"id"`
	LoanID   int        `json:"loan_id"`
	Amount   int        `json:"amount"`
	PaidDate *time.Time `json:"paid_date,omitempty"`
	IsPaid   bool       `json:"is_paid"`
}
