package services

import (
	"context"
	"errors"
	"testing"

	"github.com/librarium/backend/internal/auth"
	"github.com/librarium/backend/internal/models"
	"github.com/librarium/backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user                   *models.User
	err                    error
	createErr              error
	createdUser            *models.User
	existsByEmailResult    bool
	existsByEmailError     error
	existsByUsernameResult bool
	existsByUsernameError  error
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 1
	m.createdUser = user
	return nil
}

func (m *mockUserRepository) GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailError != nil {
		return false, m.existsByEmailError
	}
	return m.existsByEmailResult, nil
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameError != nil {
		return false, m.existsByUsernameError
	}
	return m.existsByUsernameResult, nil
}

// mockSessionStore is a mock implementation of SessionStore
type mockSessionStore struct {
	token     string
	createErr error
	created   []session.Identity
	destroyed []string
}

func (m *mockSessionStore) Create(identity session.Identity) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, identity)
	return m.token, nil
}

func (m *mockSessionStore) Destroy(token string) {
	m.destroyed = append(m.destroyed, token)
}

func TestAuthService_Signup(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name          string
		req           *models.SignupRequest
		userRepo      *mockUserRepository
		expectedError error
		errorContains string
	}{
		{
			name: "success",
			req: &models.SignupRequest{
				Email:    "test@example.com",
				Username: "testuser",
				Password: "Password123!",
			},
			userRepo: &mockUserRepository{},
		},
		{
			name: "email normalized to lower case",
			req: &models.SignupRequest{
				Email:    "  TEST@EXAMPLE.COM  ",
				Username: "  testuser  ",
				Password: "Password123!",
			},
			userRepo: &mockUserRepository{},
		},
		{
			name: "invalid email format",
			req: &models.SignupRequest{
				Email:    "invalid-email",
				Username: "testuser",
				Password: "Password123!",
			},
			userRepo:      &mockUserRepository{},
			expectedError: models.ErrInvalidEmail,
		},
		{
			name: "empty username",
			req: &models.SignupRequest{
				Email:    "test@example.com",
				Username: "   ",
				Password: "Password123!",
			},
			userRepo:      &mockUserRepository{},
			expectedError: models.ErrEmptyUsername,
		},
		{
			name: "empty password",
			req: &models.SignupRequest{
				Email:    "test@example.com",
				Username: "testuser",
				Password: "",
			},
			userRepo:      &mockUserRepository{},
			expectedError: models.ErrEmptyPassword,
		},
		{
			name: "email already taken",
			req: &models.SignupRequest{
				Email:    "existing@example.com",
				Username: "testuser",
				Password: "Password123!",
			},
			userRepo: &mockUserRepository{
				existsByEmailResult: true,
			},
			expectedError: models.ErrEmailTaken,
		},
		{
			name: "username already taken",
			req: &models.SignupRequest{
				Email:    "test@example.com",
				Username: "existinguser",
				Password: "Password123!",
			},
			userRepo: &mockUserRepository{
				existsByUsernameResult: true,
			},
			expectedError: models.ErrUsernameTaken,
		},
		{
			name: "duplicate surfaces from the insert despite passing pre-check",
			req: &models.SignupRequest{
				Email:    "racing@example.com",
				Username: "racinguser",
				Password: "Password123!",
			},
			userRepo: &mockUserRepository{
				createErr: models.ErrEmailTaken,
			},
			expectedError: models.ErrEmailTaken,
		},
		{
			name: "database error checking email",
			req: &models.SignupRequest{
				Email:    "test@example.com",
				Username: "testuser",
				Password: "Password123!",
			},
			userRepo: &mockUserRepository{
				existsByEmailError: errors.New("database error"),
			},
			errorContains: "failed to check email",
		},
		{
			name: "database error checking username",
			req: &models.SignupRequest{
				Email:    "test@example.com",
				Username: "testuser",
				Password: "Password123!",
			},
			userRepo: &mockUserRepository{
				existsByUsernameError: errors.New("database error"),
			},
			errorContains: "failed to check username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mockSessionStore{token: "token"}
			svc := NewAuthService(tt.userRepo, sessions, logger)

			err := svc.Signup(context.Background(), tt.req)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.errorContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			default:
				require.NoError(t, err)
				created := tt.userRepo.createdUser
				require.NotNil(t, created)
				assert.Equal(t, "test@example.com", created.Email)
				assert.Equal(t, "testuser", created.Username)
				assert.Equal(t, models.RoleMember, created.Role)
				assert.True(t, auth.CheckPassword("Password123!", created.HashedPassword))
				// Signup never opens a session
				assert.Empty(t, sessions.created)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	logger := zap.NewNop()

	hashed, err := auth.HashPassword("Password123!")
	require.NoError(t, err)

	storedUser := &models.User{
		ID:             1,
		Email:          "test@example.com",
		Username:       "testuser",
		HashedPassword: hashed,
		Role:           models.RoleMember,
	}

	tests := []struct {
		name          string
		req           *models.LoginRequest
		userRepo      *mockUserRepository
		sessions      *mockSessionStore
		expectedError error
	}{
		{
			name:     "success with email",
			req:      &models.LoginRequest{Login: "test@example.com", Password: "Password123!"},
			userRepo: &mockUserRepository{user: storedUser},
			sessions: &mockSessionStore{token: "session-token"},
		},
		{
			name:     "success with username",
			req:      &models.LoginRequest{Login: "testuser", Password: "Password123!"},
			userRepo: &mockUserRepository{user: storedUser},
			sessions: &mockSessionStore{token: "session-token"},
		},
		{
			name:          "empty login",
			req:           &models.LoginRequest{Login: "   ", Password: "Password123!"},
			userRepo:      &mockUserRepository{user: storedUser},
			sessions:      &mockSessionStore{},
			expectedError: models.ErrUserNotFound,
		},
		{
			name:          "user does not exist",
			req:           &models.LoginRequest{Login: "nobody", Password: "Password123!"},
			userRepo:      &mockUserRepository{err: models.ErrUserNotFound},
			sessions:      &mockSessionStore{},
			expectedError: models.ErrUserNotFound,
		},
		{
			name:          "incorrect password",
			req:           &models.LoginRequest{Login: "testuser", Password: "WrongPassword!"},
			userRepo:      &mockUserRepository{user: storedUser},
			sessions:      &mockSessionStore{},
			expectedError: models.ErrIncorrectPassword,
		},
		{
			name:          "session creation failure",
			req:           &models.LoginRequest{Login: "testuser", Password: "Password123!"},
			userRepo:      &mockUserRepository{user: storedUser},
			sessions:      &mockSessionStore{createErr: errors.New("store error")},
			expectedError: errors.New("failed to create session"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.userRepo, tt.sessions, logger)

			token, identity, err := svc.Login(context.Background(), tt.req)

			if tt.expectedError != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedError, models.ErrUserNotFound) || errors.Is(tt.expectedError, models.ErrIncorrectPassword) {
					assert.ErrorIs(t, err, tt.expectedError)
				} else {
					assert.Contains(t, err.Error(), tt.expectedError.Error())
				}
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "session-token", token)
				assert.Equal(t, storedUser.ID, identity.ID)
				assert.Equal(t, storedUser.Email, identity.Email)
				assert.Equal(t, storedUser.Username, identity.Username)
				assert.Equal(t, storedUser.Role, identity.Role)
				require.Len(t, tt.sessions.created, 1)
				assert.Equal(t, identity, tt.sessions.created[0])
			}
		})
	}
}

func TestAuthService_Login_DistinguishesUnknownUserFromWrongPassword(t *testing.T) {
	logger := zap.NewNop()
	hashed, err := auth.HashPassword("Password123!")
	require.NoError(t, err)

	svc := NewAuthService(&mockUserRepository{err: models.ErrUserNotFound}, &mockSessionStore{}, logger)
	_, _, unknownErr := svc.Login(context.Background(), &models.LoginRequest{Login: "nobody", Password: "x"})

	svc = NewAuthService(&mockUserRepository{user: &models.User{
		ID:             1,
		HashedPassword: hashed,
		Role:           models.RoleMember,
	}}, &mockSessionStore{}, logger)
	_, _, wrongPassErr := svc.Login(context.Background(), &models.LoginRequest{Login: "testuser", Password: "wrong"})

	assert.ErrorIs(t, unknownErr, models.ErrUserNotFound)
	assert.ErrorIs(t, wrongPassErr, models.ErrIncorrectPassword)
	assert.NotErrorIs(t, wrongPassErr, models.ErrUserNotFound)
}

func TestAuthService_Logout(t *testing.T) {
	sessions := &mockSessionStore{}
	svc := NewAuthService(&mockUserRepository{}, sessions, zap.NewNop())

	svc.Logout("some-token")
	svc.Logout("some-token")

	assert.Equal(t, []string{"some-token", "some-token"}, sessions.destroyed)
}
