package repository

import (
	"context"
	"time"
)

// User representa la fila de users.
//
// Invariant: IsTwoFactorEnabled == true implies TOTPSecretEncrypted != nil.
// The inverse is allowed: a generated-but-unconfirmed secret exists between
// setup and enable.
type User struct {
	ID                     int64
	Email                  string
	PasswordHash           string
	IsTwoFactorEnabled     bool
	TOTPSecretEncrypted    *string
	RecoveryCodesEncrypted *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// UserRepository define las operaciones sobre usuarios.
// Get* methods return (nil, nil) when the row does not exist.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByIDForUpdate carga la fila con lock de escritura. Solo válido
	// dentro de Store.WithinTx; fuera de una tx se comporta como GetByID.
	GetByIDForUpdate(ctx context.Context, id int64) (*User, error)

	// SetTOTPSecret guarda un secreto generado pero aún no confirmado.
	// No toca is_two_factor_enabled.
	SetTOTPSecret(ctx context.Context, id int64, secretEnc string) error

	// EnableTOTP marca is_two_factor_enabled y guarda los recovery codes.
	EnableTOTP(ctx context.Context, id int64, recoveryEnc string) error

	// SetRecoveryCodes reemplaza el blob de recovery codes.
	SetRecoveryCodes(ctx context.Context, id int64, recoveryEnc *string) error

	// DisableTOTP limpia secreto, flag y recovery codes en una sola escritura.
	DisableTOTP(ctx context.Context, id int64) error

	List(ctx context.Context) ([]User, error)
}
