package repository

import (
	"context"
	"errors"

	"authflow/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no user.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a username is already taken.
	ErrDuplicate = errors.New("user already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateName(ctx context.Context, username, name string) error
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	Delete(ctx context.Context, username string) error
}
