// Package admin contiene los servicios de administración de cuentas.
package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/security/password"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrWeakPassword = errors.New("password too short")
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

const minPasswordLen = 10

// UsersService crea y lista cuentas. Pensado para el CLI de operación y el
// surface admin, no para registro self-service.
type UsersService struct {
	store repository.Store
}

func NewUsersService(store repository.Store) *UsersService {
	return &UsersService{store: store}
}

func (s *UsersService) Create(ctx context.Context, email, plain string) (*repository.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(plain) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	existing, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := password.Hash(password.Default, plain)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users().Create(ctx, email, hash)
	if err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.From(ctx).Info("user created",
		logger.Layer("service"),
		logger.Component("admin.users"),
		logger.UserID(user.ID),
	)
	return user, nil
}

func (s *UsersService) List(ctx context.Context) ([]repository.User, error) {
	return s.store.Users().List(ctx)
}

func (s *UsersService) Get(ctx context.Context, id int64) (*repository.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Credentials lista las llaves WebAuthn de una cuenta existente.
func (s *UsersService) Credentials(ctx context.Context, userID int64) ([]repository.WebAuthnCredential, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Credentials().ListByUser(ctx, userID)
}
