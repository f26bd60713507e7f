package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishna9325/Car-Rental/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

// Create fails with domain.ErrConflict when the username is taken.
func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`,
		user.Username, user.PasswordHash, user.Role).Scan(&user.ID, &user.CreatedAt)
	return mapError(err, "create user %q", user.Username)
}

func (r *PGUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user %q", username)
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
