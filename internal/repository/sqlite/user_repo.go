package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
)

// UserRepository implements repository.UserRepository using SQLite.
type UserRepository struct {
	db     *DB
	logger zerolog.Logger
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.With().Str("repository", "sqlite_user").Logger(),
	}
}

// GetByEmail looks up a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, role, password_hash
		FROM users WHERE email = ?`

	var (
		user domain.User
		role string
	)
	err := r.db.QueryRowContext(ctx, query, normalizeEmail(email)).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&role,
		&user.PasswordHash,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	user.Role = domain.ParseRole(role)
	return &user, nil
}

// Create inserts a new user. Emails are stored lowercased so lookups
// stay case-insensitive.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, name, role, password_hash)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		normalizeEmail(user.Email),
		user.Name,
		string(user.Role),
		user.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("user_id", user.ID).Msg("user created")
	return nil
}

// List returns all users ordered by email.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT id, email, name, role, password_hash
		FROM users ORDER BY email`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		var (
			user domain.User
			role string
		)
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &role, &user.PasswordHash); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = domain.ParseRole(role)
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
