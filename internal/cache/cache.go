// Package cache provee una abstracción de cache con soporte multi-backend.
//
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// El session store y el rate limiter se apoyan en esta interfaz.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// ErrNotFound indica que la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound reporta si err es un miss de cache.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
