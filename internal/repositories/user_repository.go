package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/librarium/backend/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number for unique constraint violations
const mysqlDuplicateEntry = 1062

// userRepository implements data access for the users table
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user into the database. The unique constraints on
// email and username are the authority for duplicates: a concurrent signup
// that passes the application-level pre-check still fails here.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, hashed_password, role, first_name, last_name, phone, address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Email, user.Username, user.HashedPassword, user.Role,
		user.FirstName, user.LastName, user.Phone, user.Address)
	if err != nil {
		if dup := duplicateEntryError(err); dup != nil {
			return dup
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// duplicateEntryError maps a MySQL duplicate-key error to the matching
// domain error, or returns nil if err is not a duplicate-key error.
// The 1062 message embeds the duplicated value, so matching must key on the
// index name rather than the word "email".
func duplicateEntryError(err error) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != mysqlDuplicateEntry {
		return nil
	}
	if strings.Contains(mysqlErr.Message, "uq_users_email") {
		return models.ErrEmailTaken
	}
	return models.ErrUsernameTaken
}

// GetByEmailOrUsername retrieves an active user by email or username
func (r *userRepository) GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error) {
	query := `
		SELECT id, email, username, hashed_password, role
		FROM users
		WHERE (email = ? OR username = ?) AND is_deleted = 0
		LIMIT 1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, login, login).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.HashedPassword,
		&user.Role,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by email or username", zap.Error(err), zap.String("login", login))
		return nil, fmt.Errorf("failed to get user by email or username: %w", err)
	}

	if !user.Role.Valid() {
		r.logger.Error("unknown role on user row", zap.Int("userId", user.ID), zap.String("role", string(user.Role)))
		return nil, fmt.Errorf("unknown role %q on user %d", user.Role, user.ID)
	}

	return user, nil
}

// GetByID retrieves an active user by ID
func (r *userRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	query := `
		SELECT email, username, hashed_password, role, first_name, last_name, phone, address, created_at, updated_at
		FROM users
		WHERE id = ? AND is_deleted = 0
		LIMIT 1
	`

	user := &models.User{ID: userID}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.Email,
		&user.Username,
		&user.HashedPassword,
		&user.Role,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.Int("userId", userID))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if !user.Role.Valid() {
		r.logger.Error("unknown role on user row", zap.Int("userId", user.ID), zap.String("role", string(user.Role)))
		return nil, fmt.Errorf("unknown role %q on user %d", user.Role, user.ID)
	}

	return user, nil
}

// ExistsByEmail checks if an active user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE email = ? AND is_deleted = 0)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// ExistsByUsername checks if an active user exists with the given username
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE username = ? AND is_deleted = 0)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check username existence", zap.Error(err), zap.String("username", username))
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// ListMembers retrieves all active users with the MEMBER role
func (r *userRepository) ListMembers(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, email, username, first_name, last_name, phone, address, created_at, updated_at
		FROM users
		WHERE role = ? AND is_deleted = 0
		ORDER BY username
	`

	rows, err := r.db.QueryContext(ctx, query, models.RoleMember)
	if err != nil {
		r.logger.Error("failed to list members", zap.Error(err))
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.User
	for rows.Next() {
		user := &models.User{Role: models.RoleMember}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.Phone,
			&user.Address,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			r.logger.Error("failed to scan member row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, user)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("failed to iterate member rows", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate member rows: %w", err)
	}

	return members, nil
}

// SoftDelete marks a user as deleted without removing the row
func (r *userRepository) SoftDelete(ctx context.Context, userID int) error {
	query := `UPDATE users SET is_deleted = 1 WHERE id = ? AND is_deleted = 0`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to soft delete user", zap.Error(err), zap.Int("userId", userID))
		return fmt.Errorf("failed to soft delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}
