package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/security/password"
)

// PasswordAuthenticator verifica email+password con mitigación de timing.
type PasswordAuthenticator struct {
	store repository.Store
}

func NewPasswordAuthenticator(store repository.Store) *PasswordAuthenticator {
	return &PasswordAuthenticator{store: store}
}

// Authenticate busca al usuario y verifica el password. Si el email no
// existe igual quema una verificación argon2 completa, y todo el camino
// corre contra un timer de minAuthLatency: el caller no avanza antes.
// Devuelve ErrInvalidCredentials sin distinguir causa.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, plain string) (*repository.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Authenticate"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || plain == "" {
		return nil, ErrInvalidCredentials
	}

	var user *repository.User
	err := withMinLatency(ctx, minAuthLatency, func() error {
		u, err := a.store.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if u == nil || u.PasswordHash == "" {
			// misma cantidad de trabajo que un verify real
			password.VerifyDummy(plain)
			return ErrInvalidCredentials
		}
		if !password.Verify(plain, u.PasswordHash) {
			return ErrInvalidCredentials
		}
		user = u
		return nil
	})
	if err != nil {
		log.Debug("password authentication failed")
		return nil, err
	}
	return user, nil
}
