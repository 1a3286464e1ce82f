package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/backend/internal/middleware"
	"github.com/librarium/backend/internal/services"
	"go.uber.org/zap"
)

// MemberService is the interface that wraps the member dashboard view
type MemberService interface {
	Dashboard(ctx context.Context, memberID int) (*services.MemberDashboard, error)
}

// MemberHandler handles the member-only routes
type MemberHandler struct {
	BaseHandler
	memberService MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService MemberService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		memberService: memberService,
	}
}

// RegisterRoutes registers the member routes. The caller applies the MEMBER
// role guard to the router group.
func (h *MemberHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
}

// Dashboard handles GET /member/dashboard, showing the logged-in member's
// loans and borrowing stats
func (h *MemberHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		// The role guard injects the identity; reaching this without one is a wiring bug
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	dash, err := h.memberService.Dashboard(r.Context(), identity.ID)
	if err != nil {
		h.Logger.Error("failed to build member dashboard", zap.Error(err), zap.Int("memberId", identity.ID))
		h.RespondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	h.RespondJSON(w, http.StatusOK, dash)
}
