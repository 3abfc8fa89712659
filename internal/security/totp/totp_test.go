package totp

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	otplib "github.com/pquerna/otp/totp"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	enr, err := GenerateSecret("StrongJohn", "ana@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret err: %v", err)
	}
	if enr.SecretBase32 == "" {
		t.Fatalf("empty secret")
	}
	if !strings.HasPrefix(enr.URI, "otpauth://totp/") {
		t.Fatalf("unexpected URI: %q", enr.URI)
	}
	if !strings.Contains(enr.URI, "StrongJohn") {
		t.Fatalf("issuer missing from URI: %q", enr.URI)
	}
	if len(enr.QRPNG) == 0 {
		t.Fatalf("empty QR image")
	}
	// PNG magic
	if enr.QRPNG[0] != 0x89 || string(enr.QRPNG[1:4]) != "PNG" {
		t.Fatalf("QR is not a PNG")
	}
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := otplib.GenerateCodeCustom(secret, at, otplib.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("GenerateCodeCustom err: %v", err)
	}
	return code
}

func TestVerify(t *testing.T) {
	t.Parallel()

	enr, err := GenerateSecret("StrongJohn", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 8, 29, 12, 0, 15, 0, time.UTC)

	if !Verify(enr.SecretBase32, codeAt(t, enr.SecretBase32, now), now, 1) {
		t.Fatalf("current code rejected")
	}
	// con espacios alrededor tambien vale
	if !Verify(enr.SecretBase32, " "+codeAt(t, enr.SecretBase32, now)+" ", now, 1) {
		t.Fatalf("trimmed code rejected")
	}
	// un paso de drift entra con skew=1
	if !Verify(enr.SecretBase32, codeAt(t, enr.SecretBase32, now.Add(-30*time.Second)), now, 1) {
		t.Fatalf("previous-step code rejected with skew=1")
	}
	if !Verify(enr.SecretBase32, codeAt(t, enr.SecretBase32, now.Add(30*time.Second)), now, 1) {
		t.Fatalf("next-step code rejected with skew=1")
	}
	// dos pasos quedan fuera
	if Verify(enr.SecretBase32, codeAt(t, enr.SecretBase32, now.Add(-90*time.Second)), now, 1) {
		t.Fatalf("stale code accepted")
	}
	// sin skew, el paso adyacente no entra
	if Verify(enr.SecretBase32, codeAt(t, enr.SecretBase32, now.Add(-30*time.Second)), now, 0) {
		t.Fatalf("previous-step code accepted with skew=0")
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	t.Parallel()

	enr, err := GenerateSecret("StrongJohn", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	for _, code := range []string{"", "12345", "1234567", "abcdef", "000000 111111"} {
		if Verify(enr.SecretBase32, code, now, 1) {
			t.Fatalf("garbage code accepted: %q", code)
		}
	}
}

func TestGenerateRecoveryCodes(t *testing.T) {
	t.Parallel()

	codes, err := GenerateRecoveryCodes(10)
	if err != nil {
		t.Fatalf("GenerateRecoveryCodes err: %v", err)
	}
	if len(codes) != 10 {
		t.Fatalf("got %d codes, want 10", len(codes))
	}
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		if len(c) != recoveryCodeLen {
			t.Fatalf("code %q has length %d", c, len(c))
		}
		if strings.ContainsAny(c, "IO01") {
			t.Fatalf("code %q uses an ambiguous character", c)
		}
		if seen[c] {
			t.Fatalf("duplicate code %q", c)
		}
		seen[c] = true
	}
}
