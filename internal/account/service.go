package account

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords, so a caller cannot tell which check failed.
var ErrInvalidCredentials = errors.New("invalid username or password")

// dummyHash is compared against when the username does not exist, keeping
// the unknown-user path as slow as the wrong-password path.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("asistencia-dummy"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// Store is the persistence surface the service needs.
type Store interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, username, passwordHash string) (User, error)
	CreateIfEmpty(ctx context.Context, username, passwordHash string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Service owns credential verification and account seeding.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Authenticate verifies a username/password pair and returns the matching
// account. Any mismatch yields ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// SetPassword hashes and stores a new password for the user.
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, string(hash))
}

// Bootstrap seeds the first account when storage is empty. It reports
// whether an account was created; re-running against seeded storage is a
// no-op.
func (s *Service) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, errors.New("bootstrap credentials not configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	return s.store.CreateIfEmpty(ctx, username, string(hash))
}
