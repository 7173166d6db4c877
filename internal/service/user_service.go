package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"authflow/internal/domain"
	"authflow/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that the supplied password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates that no account exists for the username.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidInput wraps validation failures on user supplied fields.
	ErrInvalidInput = errors.New("invalid input")
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Get(ctx context.Context, username string) (*domain.User, error)
	UpdateName(ctx context.Context, username, name string) (*domain.User, error)
	UpdatePassword(ctx context.Context, username, password string) error
	Delete(ctx context.Context, username, password string) error
}

type userService struct {
	users repository.UserRepository
	cost  int
}

// NewUserService returns a UserService hashing passwords with the given bcrypt
// cost. A cost of zero selects bcrypt.DefaultCost.
func NewUserService(users repository.UserRepository, cost int) UserService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		users: users,
		cost:  cost,
	}
}

func (s *userService) Register(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	username := strings.TrimSpace(creds.Username)
	name := strings.TrimSpace(creds.Name)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if creds.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	hash, err := s.hash(creds.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Get(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) UpdateName(ctx context.Context, username, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.users.UpdateName(ctx, username, name); err != nil {
		return nil, mapNotFound(err)
	}
	return s.Get(ctx, username)
}

func (s *userService) UpdatePassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return mapNotFound(s.users.UpdatePasswordHash(ctx, username, hash))
}

// Delete removes the account after re-checking its password.
func (s *userService) Delete(ctx context.Context, username, password string) error {
	if _, err := s.Authenticate(ctx, username, password); err != nil {
		return err
	}
	return mapNotFound(s.users.Delete(ctx, username))
}

func (s *userService) lookup(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

func (s *userService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
