package repository

import (
	"context"
	"time"
)

// WebAuthnCredential representa un autenticador registrado.
// CredentialID y PublicKey van en base64url sin padding.
type WebAuthnCredential struct {
	ID              int64
	UserID          int64
	CredentialID    string
	PublicKey       string
	AttestationType string
	Counter         uint32
	Transports      []string
	DeviceType      string
	BackedUp        bool
	FriendlyName    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CredentialRepository define operaciones sobre credenciales WebAuthn.
// Get* methods return (nil, nil) when the row does not exist.
type CredentialRepository interface {
	// Create inserta una credencial. Retorna ErrDuplicate si credential_id
	// ya existe (para cualquier usuario).
	Create(ctx context.Context, cred WebAuthnCredential) (*WebAuthnCredential, error)

	GetByCredentialID(ctx context.Context, credentialID string) (*WebAuthnCredential, error)

	// GetByCredentialIDForUpdate carga con lock de escritura dentro de
	// Store.WithinTx (counter check-then-update).
	GetByCredentialIDForUpdate(ctx context.Context, credentialID string) (*WebAuthnCredential, error)

	ListByUser(ctx context.Context, userID int64) ([]WebAuthnCredential, error)

	// UpdateCounter persiste el nuevo signature counter y updated_at.
	UpdateCounter(ctx context.Context, credentialID string, counter uint32) error

	Rename(ctx context.Context, userID, id int64, friendlyName string) error

	// Delete borra una credencial del usuario. Retorna cuántas filas borró.
	Delete(ctx context.Context, userID, id int64) (int64, error)
}

// TrustedDevice es un dispositivo que puede saltarse el paso MFA.
type TrustedDevice struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TrustedDeviceRepository define operaciones sobre dispositivos confiables.
type TrustedDeviceRepository interface {
	Add(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	IsTrusted(ctx context.Context, userID int64, tokenHash string) (bool, error)

	// DeleteByUser revoca todos los dispositivos del usuario (al deshabilitar MFA).
	DeleteByUser(ctx context.Context, userID int64) error
}
