package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	memstore "github.com/dropDatabas3/strongjohn/internal/store/memory"
)

func TestPasswordAuthenticate_Success(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	svc := NewPasswordAuthenticator(store)

	got, err := svc.Authenticate(context.Background(), "ANA@example.com ", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Authenticate err: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong user: %+v", got)
	}
}

func TestPasswordAuthenticate_GenericFailure(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	createUser(t, store, "ana@example.com", "hunter2hunter2")
	svc := NewPasswordAuthenticator(store)
	ctx := context.Background()

	// email inexistente y password incorrecto fallan con el MISMO sentinel
	for _, tc := range []struct{ email, pass string }{
		{"nadie@example.com", "hunter2hunter2"},
		{"ana@example.com", "wrong-password"},
		{"", "hunter2hunter2"},
		{"ana@example.com", ""},
	} {
		if _, err := svc.Authenticate(ctx, tc.email, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Authenticate(%q, %q) err = %v, want ErrInvalidCredentials", tc.email, tc.pass, err)
		}
	}
}

func TestPasswordAuthenticate_LatencyFloor(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	createUser(t, store, "ana@example.com", "hunter2hunter2")
	svc := NewPasswordAuthenticator(store)

	start := time.Now()
	if _, err := svc.Authenticate(context.Background(), "ana@example.com", "hunter2hunter2"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < minAuthLatency {
		t.Fatalf("authentication returned in %v, floor is %v", elapsed, minAuthLatency)
	}
}
