package repository

import "context"

// Store agrupa los repositorios y provee transacciones explícitas.
type Store interface {
	Users() UserRepository
	Credentials() CredentialRepository
	TrustedDevices() TrustedDeviceRepository

	// WithinTx ejecuta fn contra una vista transaccional del store y hace
	// commit si fn retorna nil. The tx handle is passed explicitly; there is
	// no process-global current transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
}
