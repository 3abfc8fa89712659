package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	memstore "github.com/dropDatabas3/strongjohn/internal/store/memory"
)

func TestTrustedDevice_IssueAndCheck(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := NewTrustedDeviceService(store, "signing-key", time.Hour, true)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	if tok == "" {
		t.Fatalf("empty token")
	}

	if !svc.Check(ctx, 7, tok) {
		t.Fatalf("issued token not trusted")
	}
	// mismo token, otro usuario
	if svc.Check(ctx, 8, tok) {
		t.Fatalf("token trusted for the wrong user")
	}
}

func TestTrustedDevice_RejectsDefects(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := NewTrustedDeviceService(store, "signing-key", time.Hour, true)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}

	if svc.Check(ctx, 7, "") {
		t.Fatalf("empty token trusted")
	}
	if svc.Check(ctx, 7, "not-a-jwt") {
		t.Fatalf("garbage trusted")
	}

	// firma con otra llave
	other := NewTrustedDeviceService(store, "other-key", time.Hour, true)
	foreign, err := other.Issue(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Check(ctx, 7, foreign) {
		t.Fatalf("token signed with a foreign key trusted")
	}

	// payload manipulado
	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if svc.Check(ctx, 7, tampered) {
		t.Fatalf("tampered token trusted")
	}
}

func TestTrustedDevice_RevocationWins(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := NewTrustedDeviceService(store, "signing-key", time.Hour, true)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !svc.Check(ctx, 7, tok) {
		t.Fatalf("token not trusted before revocation")
	}

	// firma válida pero fila borrada: no alcanza
	if err := svc.RevokeAll(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if svc.Check(ctx, 7, tok) {
		t.Fatalf("revoked token still trusted")
	}
}

func TestTrustedDevice_Disabled(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := NewTrustedDeviceService(store, "signing-key", time.Hour, false)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	if tok != "" {
		t.Fatalf("disabled service issued a token")
	}

	enabled := NewTrustedDeviceService(store, "signing-key", time.Hour, true)
	real, err := enabled.Issue(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Check(ctx, 7, real) {
		t.Fatalf("disabled service trusted a token")
	}
}

func TestTrustedDevice_Expiry(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	svc := NewTrustedDeviceService(store, "signing-key", 10*time.Millisecond, true)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if svc.Check(ctx, 7, tok) {
		t.Fatalf("expired token trusted")
	}
}
