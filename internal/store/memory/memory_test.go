package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
)

func TestUsers_CreateAndLookup(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "Ana@Example.com", "hash")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if u.ID == 0 || u.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	// lookup es case-insensitive
	got, err := s.Users().GetByEmail(ctx, "ANA@example.COM")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("GetByEmail miss: %+v", got)
	}

	if _, err := s.Users().Create(ctx, "ana@example.com", "other"); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate email err = %v, want ErrDuplicate", err)
	}

	missing, err := s.Users().GetByEmail(ctx, "nadie@example.com")
	if err != nil || missing != nil {
		t.Fatalf("missing user = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestUsers_TOTPLifecycle(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "ana@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Users().SetTOTPSecret(ctx, u.ID, "enc-secret"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Users().GetByID(ctx, u.ID)
	if got.IsTwoFactorEnabled {
		t.Fatalf("setup alone must not enable 2FA")
	}
	if got.TOTPSecretEncrypted == nil || *got.TOTPSecretEncrypted != "enc-secret" {
		t.Fatalf("secret not stored")
	}

	if err := s.Users().EnableTOTP(ctx, u.ID, "enc-codes"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Users().GetByID(ctx, u.ID)
	if !got.IsTwoFactorEnabled || got.RecoveryCodesEncrypted == nil {
		t.Fatalf("EnableTOTP incomplete: %+v", got)
	}

	if err := s.Users().DisableTOTP(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Users().GetByID(ctx, u.ID)
	if got.IsTwoFactorEnabled || got.TOTPSecretEncrypted != nil || got.RecoveryCodesEncrypted != nil {
		t.Fatalf("DisableTOTP left residue: %+v", got)
	}
}

func TestUsers_ClonesAreIsolated(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "ana@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	u.Email = "mutated@example.com"
	u.PasswordHash = "mutated"

	got, _ := s.Users().GetByID(ctx, u.ID)
	if got.Email != "ana@example.com" || got.PasswordHash != "hash" {
		t.Fatalf("caller mutation leaked into the store: %+v", got)
	}
}

func TestCredentials_DuplicateCredentialID(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	_, err := s.Credentials().Create(ctx, repository.WebAuthnCredential{UserID: 1, CredentialID: "cred-a"})
	if err != nil {
		t.Fatal(err)
	}
	// credential_id es único global, incluso para otro usuario
	_, err = s.Credentials().Create(ctx, repository.WebAuthnCredential{UserID: 2, CredentialID: "cred-a"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate credential err = %v, want ErrDuplicate", err)
	}
}

func TestCredentials_CounterRenameDelete(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	created, err := s.Credentials().Create(ctx, repository.WebAuthnCredential{UserID: 1, CredentialID: "cred-a", Counter: 3})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Credentials().UpdateCounter(ctx, "cred-a", 9); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Credentials().GetByCredentialID(ctx, "cred-a")
	if got.Counter != 9 {
		t.Fatalf("counter = %d, want 9", got.Counter)
	}

	if err := s.Credentials().Rename(ctx, 1, created.ID, "laptop"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Credentials().GetByCredentialID(ctx, "cred-a")
	if got.FriendlyName == nil || *got.FriendlyName != "laptop" {
		t.Fatalf("rename not applied: %+v", got)
	}

	// delete de otro usuario no borra nada
	n, err := s.Credentials().Delete(ctx, 2, created.ID)
	if err != nil || n != 0 {
		t.Fatalf("cross-user delete = (%d, %v), want (0, nil)", n, err)
	}
	n, err = s.Credentials().Delete(ctx, 1, created.ID)
	if err != nil || n != 1 {
		t.Fatalf("delete = (%d, %v), want (1, nil)", n, err)
	}
	got, _ = s.Credentials().GetByCredentialID(ctx, "cred-a")
	if got != nil {
		t.Fatalf("credential survived delete")
	}
}

func TestCredentials_ListByUser(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := s.Credentials().Create(ctx, repository.WebAuthnCredential{UserID: 1, CredentialID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Credentials().Create(ctx, repository.WebAuthnCredential{UserID: 2, CredentialID: "c"}); err != nil {
		t.Fatal(err)
	}

	list, err := s.Credentials().ListByUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d credentials, want 2", len(list))
	}
	if list[0].ID > list[1].ID {
		t.Fatalf("list not ordered by id")
	}
}

func TestTrustedDevices(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	if err := s.TrustedDevices().Add(ctx, 1, "h1", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.TrustedDevices().Add(ctx, 1, "h2", time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	ok, err := s.TrustedDevices().IsTrusted(ctx, 1, "h1")
	if err != nil || !ok {
		t.Fatalf("valid device not trusted: (%v, %v)", ok, err)
	}
	ok, _ = s.TrustedDevices().IsTrusted(ctx, 1, "h2")
	if ok {
		t.Fatalf("expired device trusted")
	}
	ok, _ = s.TrustedDevices().IsTrusted(ctx, 2, "h1")
	if ok {
		t.Fatalf("device trusted for the wrong user")
	}

	if err := s.TrustedDevices().DeleteByUser(ctx, 1); err != nil {
		t.Fatal(err)
	}
	ok, _ = s.TrustedDevices().IsTrusted(ctx, 1, "h1")
	if ok {
		t.Fatalf("device survived DeleteByUser")
	}
}

func TestWithinTx_SerializesAndCommits(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "ana@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	err = s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Users().GetByIDForUpdate(ctx, u.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			t.Fatalf("user missing inside tx")
		}
		return tx.Users().EnableTOTP(ctx, u.ID, "enc")
	})
	if err != nil {
		t.Fatalf("WithinTx err: %v", err)
	}

	got, _ := s.Users().GetByID(ctx, u.ID)
	if !got.IsTwoFactorEnabled {
		t.Fatalf("tx write not visible after commit")
	}
}
