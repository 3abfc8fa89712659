package auth

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// minAuthLatency es el piso de latencia del primer factor: que "email
	// inexistente" y "password incorrecto" tarden lo mismo.
	minAuthLatency = 50 * time.Millisecond

	// minConfirmLatency es el piso para la confirmación de seguridad, que
	// acepta password o assertion y no debe distinguirlos por timing.
	minConfirmLatency = 100 * time.Millisecond
)

// withMinLatency corre fn en paralelo con un timer de d y espera a AMBOS.
// El resultado de fn nunca vuelve antes de d, gane quien gane.
func withMinLatency(ctx context.Context, d time.Duration, fn func() error) error {
	var fnErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fnErr = fn()
		return nil
	})
	g.Go(func() error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return fnErr
}
