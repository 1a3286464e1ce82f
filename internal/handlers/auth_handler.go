package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/backend/internal/models"
	"github.com/librarium/backend/internal/session"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps the authentication flow
type AuthService interface {
	// Signup validates and creates a MEMBER account without logging it in.
	// Duplicate credentials surface as models.ErrEmailTaken / ErrUsernameTaken.
	Signup(ctx context.Context, req *models.SignupRequest) error
	// Login authenticates by email or username and creates a session.
	// Returns the opaque session token and the identity snapshot it embeds.
	Login(ctx context.Context, req *models.LoginRequest) (string, session.Identity, error)
	// Logout destroys the session; destroying twice is not an error.
	Logout(token string)
}

// AuthHandler handles the signup/login/logout pages and the role-based root redirect
type AuthHandler struct {
	BaseHandler
	authService AuthService
	sessions    *session.Manager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, sessions *session.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
		sessions:    sessions,
	}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Route("/auth", func(r chi.Router) {
		r.Get("/signup", h.SignupPage)
		r.Post("/signup", h.Signup)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)
	})
}

// Root handles GET / with a role-based redirect: admins to the admin
// dashboard, members to the member dashboard, anonymous callers to login
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.sessions.Resolve(r)
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	if identity.Role == models.RoleAdmin {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/member/dashboard", http.StatusSeeOther)
}

// SignupPage handles GET /auth/signup
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]string{"page": "signup"})
}

// Signup handles POST /auth/signup
// @Summary Sign up a new member
// @Description Create a MEMBER account from the signup form. Redirects to the login page on success; on a duplicate email or username the error is returned with the submitted fields echoed back.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 303 {string} string "Redirect to /auth/login"
// @Failure 400 {object} map[string]string "Validation or duplicate error"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.RespondError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	req := &models.SignupRequest{
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	if req.Email == "" || req.Username == "" || req.Password == "" {
		h.RespondFormError(w, http.StatusBadRequest, "email, username, and password are required", signupFields(req))
		return
	}

	if err := h.authService.Signup(r.Context(), req); err != nil {
		switch {
		case isSignupFormError(err):
			h.RespondFormError(w, http.StatusBadRequest, err.Error(), signupFields(req))
		default:
			h.Logger.Error("failed to sign up user", zap.Error(err))
			h.RespondFormError(w, http.StatusInternalServerError, "an error occurred, please try again", signupFields(req))
		}
		return
	}

	success := url.Values{"success": {"Account created successfully! Please login."}}
	http.Redirect(w, r, "/auth/login?"+success.Encode(), http.StatusSeeOther)
}

// isSignupFormError reports whether the signup failure is the user's input
// rather than an internal fault
func isSignupFormError(err error) bool {
	return errors.Is(err, models.ErrEmailTaken) ||
		errors.Is(err, models.ErrUsernameTaken) ||
		errors.Is(err, models.ErrInvalidEmail) ||
		errors.Is(err, models.ErrEmptyUsername) ||
		errors.Is(err, models.ErrEmptyPassword)
}

// signupFields is the form state echoed back with signup errors
func signupFields(req *models.SignupRequest) map[string]string {
	return map[string]string{
		"email":    req.Email,
		"username": req.Username,
	}
}

// LoginPage handles GET /auth/login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"page": "login"}
	if success := r.URL.Query().Get("success"); success != "" {
		resp["success"] = success
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

// Login handles POST /auth/login
// @Summary Log in
// @Description Authenticate with an email or username plus password. Sets the signed session cookie and redirects to the root, which routes by role.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param identifier formData string true "Email or username"
// @Param password formData string true "Password"
// @Success 303 {string} string "Redirect to /"
// @Failure 401 {object} map[string]string "Unknown user or wrong password"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.RespondError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	req := &models.LoginRequest{
		Login:    r.FormValue("identifier"),
		Password: r.FormValue("password"),
	}

	token, _, err := h.authService.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound) || errors.Is(err, models.ErrIncorrectPassword):
			h.RespondFormError(w, http.StatusUnauthorized, err.Error(), map[string]string{
				"identifier": req.Login,
			})
		default:
			h.Logger.Error("failed to log in user", zap.Error(err))
			h.RespondError(w, http.StatusInternalServerError, "an error occurred during login")
		}
		return
	}

	if err := h.sessions.WriteCookie(w, token); err != nil {
		h.Logger.Error("failed to write session cookie", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "an error occurred during login")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles GET /auth/logout. Logging out without a session is a no-op
// redirect, so logging out twice is safe.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.sessions.ReadCookie(r); ok {
		h.authService.Logout(token)
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
