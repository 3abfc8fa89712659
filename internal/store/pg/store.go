// Package pg implements repository.Store over PostgreSQL (pgx).
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier abstrae pgxpool.Pool y pgx.Tx para compartir los repos entre
// conexión directa y transacción.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implementa repository.Store.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// New crea un Store sobre un pool existente.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// Connect abre el pool y verifica conectividad.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return New(pool), nil
}

func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

func (s *Store) Credentials() repository.CredentialRepository { return &credentialRepo{s} }

func (s *Store) TrustedDevices() repository.TrustedDeviceRepository { return &trustedDeviceRepo{s} }

// WithinTx ejecuta fn en una transacción. Los repos de la vista tx usan
// FOR UPDATE en los Get*ForUpdate, lo que serializa verify-then-consume por
// fila (ver credenciales y recovery codes).
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		// tx anidada: reusar la actual
		return fn(ctx, s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{pool: s.pool, q: tx, inTx: true}
	if err := fn(ctx, txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close cierra el pool.
func (s *Store) Close() { s.pool.Close() }

// mapPgError traduce violaciones de unicidad a repository.ErrDuplicate.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrDuplicate
	}
	return err
}
