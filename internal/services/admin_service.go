package services

import (
	"context"

	"github.com/librarium/backend/internal/models"
	"go.uber.org/zap"
)

// MemberLister is the interface that wraps member listing for the admin pages
type MemberLister interface {
	// GetByID retrieves an active user. Returns models.ErrUserNotFound when missing.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// ListMembers retrieves all active MEMBER users.
	ListMembers(ctx context.Context) ([]*models.User, error)
	// SoftDelete marks a user as deleted. Returns models.ErrUserNotFound when
	// the user is missing or already deleted.
	SoftDelete(ctx context.Context, userID int) error
}

// BookRepository is the interface that wraps catalog data access
type BookRepository interface {
	// List retrieves all active books with category names.
	List(ctx context.Context) ([]*models.Book, error)
	// GetByID retrieves an active book. Returns models.ErrNotFound when missing.
	GetByID(ctx context.Context, bookID int) (*models.Book, error)
	// ListCategories retrieves all active categories ordered by name.
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

// LoanHistoryRepository is the interface that wraps the loan read paths used
// by the admin detail pages
type LoanHistoryRepository interface {
	ListByUser(ctx context.Context, userID int) ([]*models.BookLoan, error)
	ListActiveByBook(ctx context.Context, bookID int) ([]*models.BookLoan, error)
}

// FineHistoryRepository is the interface that wraps the fine read paths
type FineHistoryRepository interface {
	ListByUser(ctx context.Context, userID int) ([]*models.Fine, error)
}

// MemberDetail aggregates everything the admin member page shows
type MemberDetail struct {
	Member *models.User       `json:"member"`
	Loans  []*models.BookLoan `json:"loans"`
	Fines  []*models.Fine     `json:"fines"`
}

// BookDetail aggregates everything the admin book page shows
type BookDetail struct {
	Book      *models.Book       `json:"book"`
	Borrowers []*models.BookLoan `json:"current_borrowers"`
}

// adminService implements the admin member and inventory views
type adminService struct {
	users  MemberLister
	books  BookRepository
	loans  LoanHistoryRepository
	fines  FineHistoryRepository
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(users MemberLister, books BookRepository, loans LoanHistoryRepository, fines FineHistoryRepository, logger *zap.Logger) *adminService {
	return &adminService{
		users:  users,
		books:  books,
		loans:  loans,
		fines:  fines,
		logger: logger,
	}
}

// ListMembers returns all active members
func (s *adminService) ListMembers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListMembers(ctx)
}

// GetMember returns a member with their loan and fine history
func (s *adminService) GetMember(ctx context.Context, memberID int) (*MemberDetail, error) {
	member, err := s.users.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	loans, err := s.loans.ListByUser(ctx, memberID)
	if err != nil {
		return nil, err
	}

	fines, err := s.fines.ListByUser(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &MemberDetail{Member: member, Loans: loans, Fines: fines}, nil
}

// DeactivateMember soft-deletes a member. Deactivation does not release the
// email or username for reuse; the unique constraints span deleted rows.
func (s *adminService) DeactivateMember(ctx context.Context, memberID int) error {
	if err := s.users.SoftDelete(ctx, memberID); err != nil {
		return err
	}
	s.logger.Info("member deactivated", zap.Int("memberId", memberID))
	return nil
}

// ListCategories returns all active categories
func (s *adminService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.books.ListCategories(ctx)
}

// ListBooks returns the full catalog
func (s *adminService) ListBooks(ctx context.Context) ([]*models.Book, error) {
	return s.books.List(ctx)
}

// GetBook returns a book with its current borrowers
func (s *adminService) GetBook(ctx context.Context, bookID int) (*BookDetail, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	borrowers, err := s.loans.ListActiveByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &BookDetail{Book: book, Borrowers: borrowers}, nil
}
