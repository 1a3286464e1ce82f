package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/backend/internal/models"
	"github.com/librarium/backend/internal/services"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps the admin member and inventory views
type AdminService interface {
	ListMembers(ctx context.Context) ([]*models.User, error)
	GetMember(ctx context.Context, memberID int) (*services.MemberDetail, error)
	DeactivateMember(ctx context.Context, memberID int) error
	ListBooks(ctx context.Context) ([]*models.Book, error)
	GetBook(ctx context.Context, bookID int) (*services.BookDetail, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

// LoanService is the interface that wraps the loan lifecycle operations
type LoanService interface {
	Borrow(ctx context.Context, userID, bookID int, dueDate time.Time) (*models.BookLoan, error)
	Return(ctx context.Context, loanID int) (*models.BookLoan, error)
	PayFine(ctx context.Context, fineID int) error
}

// AdminHandler handles the admin-only routes
type AdminHandler struct {
	BaseHandler
	adminService AdminService
	loanService  LoanService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, loanService LoanService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
		loanService:  loanService,
	}
}

// RegisterRoutes registers the admin routes. The caller applies the ADMIN
// role guard to the router group.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/members", h.Members)
	r.Get("/members/{id}", h.MemberDetail)
	r.Post("/members/{id}/delete", h.DeactivateMember)
	r.Get("/books", h.Books)
	r.Get("/categories", h.Categories)
	r.Get("/books/{id}", h.BookDetail)
	r.Post("/loans", h.CreateLoan)
	r.Post("/loans/{id}/return", h.ReturnLoan)
	r.Post("/fines/{id}/pay", h.PayFine)
}

// Dashboard handles GET /admin/dashboard. The figures are a fixed snapshot;
// live aggregation queries are out of scope for the dashboard pages.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]any{
		"borrowed_books":           45,
		"total_books":              150,
		"total_rent_current_month": 2500,
		"total_members":            75,
		"recent_transactions": []map[string]any{
			{"id": 1, "title": "Python Programming", "issue_date": "5", "rent_fee": 150},
			{"id": 2, "title": "Data Structures", "issue_date": "10", "rent_fee": 200},
			{"id": 3, "title": "Machine Learning Basics", "issue_date": "15", "rent_fee": 175},
			{"id": 4, "title": "Web Development", "issue_date": "20", "rent_fee": 225},
			{"id": 5, "title": "Database Design", "issue_date": "25", "rent_fee": 190},
		},
	})
}

// Members handles GET /admin/members
// @Summary List members
// @Description List all active library members.
// @Tags admin
// @Produce json
// @Success 200 {array} models.User
// @Router /admin/members [get]
func (h *AdminHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.adminService.ListMembers(r.Context())
	if err != nil {
		h.Logger.Error("failed to list members", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]any{
		"members":       members,
		"total_members": len(members),
	})
}

// MemberDetail handles GET /admin/members/{id}
func (h *AdminHandler) MemberDetail(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	detail, err := h.adminService.GetMember(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, "member not found")
			return
		}
		h.Logger.Error("failed to get member", zap.Error(err), zap.Int("memberId", memberID))
		h.RespondError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	h.RespondJSON(w, http.StatusOK, detail)
}

// DeactivateMember handles POST /admin/members/{id}/delete. The member row is
// kept for loan history; only the is_deleted flag flips.
func (h *AdminHandler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	if err := h.adminService.DeactivateMember(r.Context(), memberID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, "member not found")
			return
		}
		h.Logger.Error("failed to deactivate member", zap.Error(err), zap.Int("memberId", memberID))
		h.RespondError(w, http.StatusInternalServerError, "failed to deactivate member")
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "member deactivated"})
}

// Books handles GET /admin/books
// @Summary List books
// @Description List the catalog with per-book availability.
// @Tags admin
// @Produce json
// @Success 200 {array} models.Book
// @Router /admin/books [get]
func (h *AdminHandler) Books(w http.ResponseWriter, r *http.Request) {
	books, err := h.adminService.ListBooks(r.Context())
	if err != nil {
		h.Logger.Error("failed to list books", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]any{
		"books":       books,
		"total_books": len(books),
	})
}

// Categories handles GET /admin/categories
func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.adminService.ListCategories(r.Context())
	if err != nil {
		h.Logger.Error("failed to list categories", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]any{
		"categories":       categories,
		"total_categories": len(categories),
	})
}

// BookDetail handles GET /admin/books/{id}
func (h *AdminHandler) BookDetail(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	detail, err := h.adminService.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.RespondError(w, http.StatusNotFound, "book not found")
			return
		}
		h.Logger.Error("failed to get book", zap.Error(err), zap.Int("bookId", bookID))
		h.RespondError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	h.RespondJSON(w, http.StatusOK, detail)
}

// CreateLoan handles POST /admin/loans (form fields: user_id, book_id, due_date)
func (h *AdminHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.RespondError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	userID, err := strconv.Atoi(r.FormValue("user_id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	bookID, err := strconv.Atoi(r.FormValue("book_id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid book_id")
		return
	}
	dueDate, err := time.Parse("2006-01-02", r.FormValue("due_date"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid due_date, expected YYYY-MM-DD")
		return
	}

	loan, err := h.loanService.Borrow(r.Context(), userID, bookID, dueDate)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidDueDate) || errors.Is(err, models.ErrBookUnavailable):
			h.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			h.Logger.Error("failed to create loan", zap.Error(err))
			h.RespondError(w, http.StatusInternalServerError, "failed to create loan")
		}
		return
	}
	h.RespondJSON(w, http.StatusCreated, loan)
}

// ReturnLoan handles POST /admin/loans/{id}/return
func (h *AdminHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	loan, err := h.loanService.Return(r.Context(), loanID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			h.RespondError(w, http.StatusNotFound, "loan not found")
		case errors.Is(err, models.ErrLoanAlreadyReturned):
			h.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			h.Logger.Error("failed to return loan", zap.Error(err), zap.Int("loanId", loanID))
			h.RespondError(w, http.StatusInternalServerError, "failed to return loan")
		}
		return
	}
	h.RespondJSON(w, http.StatusOK, loan)
}

// PayFine handles POST /admin/fines/{id}/pay
func (h *AdminHandler) PayFine(w http.ResponseWriter, r *http.Request) {
	fineID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid fine id")
		return
	}

	if err := h.loanService.PayFine(r.Context(), fineID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.RespondError(w, http.StatusNotFound, "fine not found or already paid")
			return
		}
		h.Logger.Error("failed to pay fine", zap.Error(err), zap.Int("fineId", fineID))
		h.RespondError(w, http.StatusInternalServerError, "failed to pay fine")
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "fine paid"})
}
