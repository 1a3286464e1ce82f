package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/librarium/backend/internal/auth"
	"github.com/librarium/backend/internal/models"
	"github.com/librarium/backend/internal/session"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Create inserts a new user. The storage layer's unique constraints are
	// authoritative for duplicate email/username and surface as
	// models.ErrEmailTaken / models.ErrUsernameTaken.
	Create(ctx context.Context, user *models.User) error
	// GetByEmailOrUsername retrieves an active user matching either field.
	// Returns models.ErrUserNotFound when no active user matches.
	GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error)
	// ExistsByEmail checks if an active user with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// ExistsByUsername checks if an active user with the username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// SessionStore is the interface that wraps session creation for login
type SessionStore interface {
	Create(identity session.Identity) (string, error)
	Destroy(token string)
}

// authService implements signup, login and logout
type authService struct {
	userRepo UserRepository
	sessions SessionStore
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, sessions SessionStore, logger *zap.Logger) *authService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
		logger:   logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Signup validates the submitted credentials and creates a MEMBER account.
// It does not log the new user in.
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) error {
	normalizedEmail, normalizedUsername, err := s.checkSignupCredentials(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:          normalizedEmail,
		Username:       normalizedUsername,
		HashedPassword: hashed,
		Role:           models.RoleMember, // Default role
	}

	return s.userRepo.Create(ctx, user)
}

// Login authenticates by email or username and creates a session embedding
// the identity snapshot. The returned token is the opaque session token.
//
// Unknown identifier and wrong password are reported as distinct errors,
// matching the user-facing messages of the login form.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, session.Identity, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return "", session.Identity{}, models.ErrUserNotFound
	}

	user, err := s.userRepo.GetByEmailOrUsername(ctx, login)
	if err != nil {
		return "", session.Identity{}, err
	}

	if !auth.CheckPassword(req.Password, user.HashedPassword) {
		return "", session.Identity{}, models.ErrIncorrectPassword
	}

	identity := session.Identity{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}

	token, err := s.sessions.Create(identity)
	if err != nil {
		return "", session.Identity{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in", zap.Int("userId", user.ID), zap.String("role", string(user.Role)))
	return token, identity, nil
}

// Logout destroys the session. Destroying an already-destroyed session is not an error.
func (s *authService) Logout(token string) {
	s.sessions.Destroy(token)
}

// checkSignupCredentials validates and normalizes the signup form fields.
// The two uniqueness pre-checks are independent round trips, so they run in
// parallel; the database constraints remain the final authority.
func (s *authService) checkSignupCredentials(ctx context.Context, email, username, password string) (string, string, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	normalizedUsername := strings.TrimSpace(username)

	if !emailRegex.MatchString(normalizedEmail) {
		return "", "", models.ErrInvalidEmail
	}
	if normalizedUsername == "" {
		return "", "", models.ErrEmptyUsername
	}
	if password == "" {
		return "", "", models.ErrEmptyPassword
	}

	validationErrors := make(chan error, 2)

	go func() {
		exists, err := s.userRepo.ExistsByEmail(ctx, normalizedEmail)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check email: %w", err)
			return
		}
		if exists {
			validationErrors <- models.ErrEmailTaken
			return
		}
		validationErrors <- nil
	}()

	go func() {
		exists, err := s.userRepo.ExistsByUsername(ctx, normalizedUsername)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check username: %w", err)
			return
		}
		if exists {
			validationErrors <- models.ErrUsernameTaken
			return
		}
		validationErrors <- nil
	}()

	for i := 0; i < 2; i++ {
		if err := <-validationErrors; err != nil {
			return "", "", err
		}
	}

	return normalizedEmail, normalizedUsername, nil
}
