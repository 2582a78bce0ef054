package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pressline/dryclean-api/internal/apperr"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store struct{ DB *pgxpool.Pool }

func (s *Store) Create(ctx context.Context, u *User) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO users(id, email, password_hash, full_name, phone, role)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageFailure, "create user", err)
	}
	return nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, `SELECT id, email, password_hash, full_name, phone, role, created_at
		FROM users WHERE email=$1`, email)
}

func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	return s.get(ctx, `SELECT id, email, password_hash, full_name, phone, role, created_at
		FROM users WHERE id=$1`, id)
}

func (s *Store) get(ctx context.Context, q, arg string) (*User, error) {
	var u User
	err := s.DB.QueryRow(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "get user", err)
	}
	return &u, nil
}
