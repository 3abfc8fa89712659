package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/security/password"
	memstore "github.com/dropDatabas3/strongjohn/internal/store/memory"
)

func TestUsersCreate(t *testing.T) {
	t.Parallel()
	svc := NewUsersService(memstore.New())
	ctx := context.Background()

	u, err := svc.Create(ctx, " Ana@Example.com ", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.PasswordHash == "hunter2hunter2" || u.PasswordHash == "" {
		t.Fatalf("password not hashed")
	}
	if !password.Verify("hunter2hunter2", u.PasswordHash) {
		t.Fatalf("stored hash does not verify")
	}

	if _, err := svc.Create(ctx, "ana@example.com", "hunter2hunter2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate err = %v, want ErrEmailTaken", err)
	}
}

func TestUsersCreate_Validation(t *testing.T) {
	t.Parallel()
	svc := NewUsersService(memstore.New())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "sin-arroba", "hunter2hunter2"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email err = %v, want ErrInvalidEmail", err)
	}
	if _, err := svc.Create(ctx, "", "hunter2hunter2"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("empty email err = %v, want ErrInvalidEmail", err)
	}
	if _, err := svc.Create(ctx, "ana@example.com", "corta"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("short password err = %v, want ErrWeakPassword", err)
	}
}

func TestUsersListAndGet(t *testing.T) {
	t.Parallel()
	svc := NewUsersService(memstore.New())
	ctx := context.Background()

	a, err := svc.Create(ctx, "a@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "b@example.com", "hunter2hunter2"); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d users, want 2", len(list))
	}

	got, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.Email != "a@example.com" {
		t.Fatalf("Get returned wrong user: %+v", got)
	}
	if _, err := svc.Get(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user err = %v, want ErrUserNotFound", err)
	}
}

func TestUsersCredentials(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := NewUsersService(store)
	ctx := context.Background()

	u, err := svc.Create(ctx, "ana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}

	creds, err := svc.Credentials(ctx, u.ID)
	if err != nil {
		t.Fatalf("Credentials err: %v", err)
	}
	if len(creds) != 0 {
		t.Fatalf("got %d credentials, want 0", len(creds))
	}

	if _, err := store.Credentials().Create(ctx, repository.WebAuthnCredential{
		UserID:       u.ID,
		CredentialID: "cred-1",
		PublicKey:    "pk",
	}); err != nil {
		t.Fatal(err)
	}

	creds, err = svc.Credentials(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(creds) != 1 || creds[0].CredentialID != "cred-1" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}

	// usuario inexistente
	if _, err := svc.Credentials(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user err = %v, want ErrUserNotFound", err)
	}
}
