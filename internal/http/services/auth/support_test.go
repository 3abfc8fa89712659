package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/security/password"
	"github.com/dropDatabas3/strongjohn/internal/security/secretbox"
	"github.com/dropDatabas3/strongjohn/internal/session"
	memstore "github.com/dropDatabas3/strongjohn/internal/store/memory"
)

// Parametros argon2 chicos para tests.
var testHashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func testCodec(t *testing.T) *secretbox.Codec {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := secretbox.NewFromKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func createUser(t *testing.T, store *memstore.Store, email, plain string) *repository.User {
	t.Helper()
	hash, err := password.Hash(testHashParams, plain)
	if err != nil {
		t.Fatal(err)
	}
	u, err := store.Users().Create(context.Background(), email, hash)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func newState() *session.State {
	return &session.State{ID: "test-session", CreatedAt: time.Now()}
}

// stubVerifier reemplaza el stack WebAuthn real: las ceremonias criptográficas
// se resuelven con respuestas fijas y los tests ejercitan todo lo demás
// (challenges, persistencia, counter, clone warning).
type stubVerifier struct {
	sessionData webauthn.SessionData

	createCred *webauthn.Credential
	createErr  error

	validateCred *webauthn.Credential
	validateErr  error
}

func (s *stubVerifier) BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	sd := s.sessionData
	return &protocol.CredentialCreation{}, &sd, nil
}

func (s *stubVerifier) CreateCredential(user webauthn.User, sd webauthn.SessionData, parsed *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	cred := *s.createCred
	return &cred, nil
}

func (s *stubVerifier) BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	sd := s.sessionData
	return &protocol.CredentialAssertion{}, &sd, nil
}

func (s *stubVerifier) ValidateLogin(user webauthn.User, sd webauthn.SessionData, parsed *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	cred := *s.validateCred
	return &cred, nil
}

func b64url(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

var testClientData = b64url([]byte(`{"type":"webauthn.get","challenge":"dGVzdA","origin":"http://localhost:8080"}`))

// assertionPayload arma un body de assertion que pasa el parseo del
// protocolo. La verificación de firma la hace el stub, no el parser.
func assertionPayload(t *testing.T, credentialID []byte) json.RawMessage {
	t.Helper()
	authData := make([]byte, 37) // rpIdHash + flags + counter, todo cero
	body := map[string]any{
		"id":    b64url(credentialID),
		"rawId": b64url(credentialID),
		"type":  "public-key",
		"response": map[string]any{
			"clientDataJSON":    testClientData,
			"authenticatorData": b64url(authData),
			"signature":         b64url([]byte("signature")),
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

// attestationPayload arma un body de attestation parseable: authData con el
// flag AT más attested credential data (AAGUID, credential id, llave COSE),
// envuelto en un attestation object CBOR formato "none". La llave es CTAP2
// canónica para que el re-marshal del parser conserve el largo.
func attestationPayload(t *testing.T, credentialID []byte) json.RawMessage {
	t.Helper()
	em, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		t.Fatal(err)
	}

	coseKey, err := em.Marshal(map[int]any{
		1:  2,  // kty EC2
		3:  -7, // alg ES256
		-1: 1,  // crv P-256
		-2: make([]byte, 32),
		-3: make([]byte, 32),
	})
	if err != nil {
		t.Fatal(err)
	}

	authData := make([]byte, 0, 55+len(credentialID)+len(coseKey))
	authData = append(authData, make([]byte, 32)...) // rpIdHash
	authData = append(authData, 0x40)                // flags: AT
	authData = append(authData, 0, 0, 0, 0)          // counter
	authData = append(authData, make([]byte, 16)...) // AAGUID
	authData = append(authData, byte(len(credentialID)>>8), byte(len(credentialID)))
	authData = append(authData, credentialID...)
	authData = append(authData, coseKey...)

	attObj, err := em.Marshal(map[string]any{
		"fmt":      "none",
		"attStmt":  map[string]any{},
		"authData": authData,
	})
	if err != nil {
		t.Fatal(err)
	}
	body := map[string]any{
		"id":    b64url(credentialID),
		"rawId": b64url(credentialID),
		"type":  "public-key",
		"response": map[string]any{
			"clientDataJSON":    b64url([]byte(`{"type":"webauthn.create","challenge":"dGVzdA","origin":"http://localhost:8080"}`)),
			"attestationObject": b64url(attObj),
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func libraryCredential(credentialID []byte, signCount uint32) *webauthn.Credential {
	return &webauthn.Credential{
		ID:              credentialID,
		PublicKey:       []byte("public-key"),
		AttestationType: "none",
		Authenticator:   webauthn.Authenticator{SignCount: signCount},
	}
}

func storedCredential(t *testing.T, store *memstore.Store, userID int64, credentialID []byte, counter uint32) *repository.WebAuthnCredential {
	t.Helper()
	created, err := store.Credentials().Create(context.Background(), repository.WebAuthnCredential{
		UserID:       userID,
		CredentialID: b64url(credentialID),
		PublicKey:    b64url([]byte("public-key")),
		Counter:      counter,
		DeviceType:   "single_device",
	})
	if err != nil {
		t.Fatal(err)
	}
	return created
}
