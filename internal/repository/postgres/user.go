package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okhomenko/library-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const uniqueViolation = "23505"

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	query := `SELECT id, email, password_hash, role, created_at
			  FROM users WHERE email = $1`

	err := r.db.q(ctx).QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	query := `SELECT id, email, password_hash, role, created_at
			  FROM users WHERE id = $1`

	err := r.db.q(ctx).QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, password_hash, role, created_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, email, password_hash, role, created_at`

	var savedUser model.User
	err := r.db.q(ctx).QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt,
	).Scan(
		&savedUser.ID, &savedUser.Email, &savedUser.PasswordHash, &savedUser.Role, &savedUser.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.User{}, model.ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

// CreateIfAbsent inserts the user unless the email is already registered; on
// conflict the existing row is returned, so two racing callers resolve to the
// same user. The no-op DO UPDATE locks and returns the conflicting row even
// when the competing insert committed after this statement's snapshot was
// taken, which a DO NOTHING + fallback select would miss. Only email is
// touched, so the first caller's password hash survives.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, password_hash, role, created_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (email) DO UPDATE SET email = excluded.email
			  RETURNING id, email, password_hash, role, created_at`

	var savedUser model.User
	err := r.db.q(ctx).QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.CreatedAt,
	).Scan(
		&savedUser.ID, &savedUser.Email, &savedUser.PasswordHash, &savedUser.Role, &savedUser.CreatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user if absent: %w", err)
	}

	return savedUser, nil
}
