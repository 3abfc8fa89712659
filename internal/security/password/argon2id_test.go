package password

import (
	"strings"
	"testing"
)

// Parametros chicos para que la suite no queme 64 MiB por hash.
var fastParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	phc, err := Hash(fastParams, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatalf("Verify rejected the right password")
	}
	if Verify("correct horse battery stapl", phc) {
		t.Fatalf("Verify accepted a wrong password")
	}
	if Verify("", phc) {
		t.Fatalf("Verify accepted empty password")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	t.Parallel()

	a, err := Hash(fastParams, "same-password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash(fastParams, "same-password")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical")
	}
}

func TestHash_RejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Hash(fastParams, ""); err == nil {
		t.Fatalf("empty password accepted")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	t.Parallel()

	for _, phc := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=18$m=8,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=19$m=8,t=1,p=1$!!!$BBBB",
		"$argon2id$v=19$m=8,t=1,p=1$AAAA",
		"$argon2id$v=19$m=0,t=0,p=0$AAAA$BBBB",
	} {
		if Verify("whatever", phc) {
			t.Fatalf("malformed PHC accepted: %q", phc)
		}
	}
}

func TestVerifyDummy_AlwaysFalse(t *testing.T) {
	t.Parallel()

	if VerifyDummy("strongjohn-dummy-credential-pad") {
		t.Fatalf("VerifyDummy returned true")
	}
	if VerifyDummy("") {
		t.Fatalf("VerifyDummy returned true for empty input")
	}
}
