package auth

import (
	"context"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/strongjohn/internal/session"
	memstore "github.com/dropDatabas3/strongjohn/internal/store/memory"
)

func newWebAuthnService(store *memstore.Store, stub *stubVerifier) *WebAuthnService {
	return NewWebAuthnService(WebAuthnDeps{Store: store, Verifier: stub})
}

func TestWebAuthn_RegistrationCeremony(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	credID := []byte("credential-aaaa")
	stub := &stubVerifier{
		sessionData: webauthn.SessionData{Challenge: "dGVzdA"},
		createCred:  libraryCredential(credID, 0),
	}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()
	st := newState()

	options, err := svc.BeginRegistration(ctx, st, u.ID)
	require.NoError(t, err)
	require.NotNil(t, options)
	require.Contains(t, st.Challenges, session.PurposeRegistration)

	created, err := svc.FinishRegistration(ctx, st, u.ID, attestationPayload(t, credID), "laptop")
	require.NoError(t, err)
	require.Equal(t, b64url(credID), created.CredentialID)
	require.True(t, st.TwoFactorPassed, "successful registration satisfies the second factor")

	list, err := svc.ListCredentials(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].FriendlyName)
	require.Equal(t, "laptop", *list[0].FriendlyName)
}

func TestWebAuthn_FinishRegistrationWithoutBegin(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	svc := newWebAuthnService(store, &stubVerifier{})

	_, err := svc.FinishRegistration(context.Background(), newState(), u.ID, attestationPayload(t, []byte("x")), "")
	require.ErrorIs(t, err, ErrMissingCeremonyPayload)
}

func TestWebAuthn_FinishRegistrationEmptyPayload(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	stub := &stubVerifier{sessionData: webauthn.SessionData{Challenge: "dGVzdA"}}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()
	st := newState()

	_, err := svc.BeginRegistration(ctx, st, u.ID)
	require.NoError(t, err)
	_, err = svc.FinishRegistration(ctx, st, u.ID, nil, "")
	require.ErrorIs(t, err, ErrMissingCeremonyPayload)
}

func TestWebAuthn_DuplicateRegistrationIsIdempotent(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	credID := []byte("credential-aaaa")
	stub := &stubVerifier{
		sessionData: webauthn.SessionData{Challenge: "dGVzdA"},
		createCred:  libraryCredential(credID, 0),
	}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()
	st := newState()

	for i := 0; i < 2; i++ {
		_, err := svc.BeginRegistration(ctx, st, u.ID)
		require.NoError(t, err)
		created, err := svc.FinishRegistration(ctx, st, u.ID, attestationPayload(t, credID), "laptop")
		require.NoError(t, err, "retry %d", i)
		require.Equal(t, b64url(credID), created.CredentialID)
	}

	list, err := svc.ListCredentials(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1, "duplicate registration must not insert")
}

func TestWebAuthn_BeginLoginUniformShape(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	createUser(t, store, "sin-passkeys@example.com", "hunter2hunter2")
	stub := &stubVerifier{sessionData: webauthn.SessionData{Challenge: "dGVzdA"}}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()

	// cuenta inexistente y cuenta sin passkeys: misma respuesta, sin challenge
	for _, email := range []string{"nadie@example.com", "sin-passkeys@example.com"} {
		st := newState()
		options, err := svc.BeginLogin(ctx, st, session.PurposePasswordless, email)
		require.NoError(t, err)
		require.Nil(t, options, "email %s", email)
		require.Empty(t, st.Challenges)
	}
}

func TestWebAuthn_AssertionCounterRules(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	credID := []byte("credential-aaaa")
	storedCredential(t, store, u.ID, credID, 5)

	stub := &stubVerifier{sessionData: webauthn.SessionData{Challenge: "dGVzdA"}}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()

	begin := func() *session.State {
		st := newState()
		options, err := svc.BeginLogin(ctx, st, session.PurposeAuthentication, "ana@example.com")
		require.NoError(t, err)
		require.NotNil(t, options)
		return st
	}

	// counter que avanza: acepta y persiste
	stub.validateCred = libraryCredential(credID, 6)
	user, err := svc.FinishLogin(ctx, begin(), session.PurposeAuthentication, assertionPayload(t, credID))
	require.NoError(t, err)
	require.Equal(t, u.ID, user.ID)
	got, _ := store.Credentials().GetByCredentialID(ctx, b64url(credID))
	require.EqualValues(t, 6, got.Counter)

	// counter repetido: señal de clon, rechaza sin tocar lo persistido
	stub.validateCred = libraryCredential(credID, 6)
	_, err = svc.FinishLogin(ctx, begin(), session.PurposeAuthentication, assertionPayload(t, credID))
	require.ErrorIs(t, err, ErrVerificationFailed)

	// counter que retrocede
	stub.validateCred = libraryCredential(credID, 2)
	_, err = svc.FinishLogin(ctx, begin(), session.PurposeAuthentication, assertionPayload(t, credID))
	require.ErrorIs(t, err, ErrVerificationFailed)

	got, _ = store.Credentials().GetByCredentialID(ctx, b64url(credID))
	require.EqualValues(t, 6, got.Counter, "rejected assertions must not move the counter")
}

func TestWebAuthn_AssertionZeroCounterAuthenticator(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	credID := []byte("credential-zero")
	storedCredential(t, store, u.ID, credID, 0)

	stub := &stubVerifier{
		sessionData:  webauthn.SessionData{Challenge: "dGVzdA"},
		validateCred: libraryCredential(credID, 0),
	}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()
	st := newState()

	_, err := svc.BeginLogin(ctx, st, session.PurposeAuthentication, "ana@example.com")
	require.NoError(t, err)
	// 0/0: authenticators sin counter son válidos
	_, err = svc.FinishLogin(ctx, st, session.PurposeAuthentication, assertionPayload(t, credID))
	require.NoError(t, err)
}

func TestWebAuthn_AssertionCloneWarning(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	credID := []byte("credential-aaaa")
	storedCredential(t, store, u.ID, credID, 5)

	cloned := libraryCredential(credID, 9)
	cloned.Authenticator.CloneWarning = true
	stub := &stubVerifier{
		sessionData:  webauthn.SessionData{Challenge: "dGVzdA"},
		validateCred: cloned,
	}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()
	st := newState()

	_, err := svc.BeginLogin(ctx, st, session.PurposeAuthentication, "ana@example.com")
	require.NoError(t, err)
	_, err = svc.FinishLogin(ctx, st, session.PurposeAuthentication, assertionPayload(t, credID))
	require.ErrorIs(t, err, ErrVerificationFailed)
}

func TestWebAuthn_AssertionUnknownCredential(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	storedCredential(t, store, u.ID, []byte("credential-aaaa"), 5)

	stub := &stubVerifier{sessionData: webauthn.SessionData{Challenge: "dGVzdA"}}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()
	st := newState()

	_, err := svc.BeginLogin(ctx, st, session.PurposeAuthentication, "ana@example.com")
	require.NoError(t, err)
	_, err = svc.FinishLogin(ctx, st, session.PurposeAuthentication, assertionPayload(t, []byte("credential-other")))
	require.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestWebAuthn_ChallengeSingleUse(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	credID := []byte("credential-aaaa")
	storedCredential(t, store, u.ID, credID, 5)

	stub := &stubVerifier{
		sessionData:  webauthn.SessionData{Challenge: "dGVzdA"},
		validateCred: libraryCredential(credID, 6),
	}
	svc := newWebAuthnService(store, stub)
	ctx := context.Background()
	st := newState()

	_, err := svc.BeginLogin(ctx, st, session.PurposeAuthentication, "ana@example.com")
	require.NoError(t, err)

	payload := assertionPayload(t, credID)
	_, err = svc.FinishLogin(ctx, st, session.PurposeAuthentication, payload)
	require.NoError(t, err)

	// replay del mismo payload: el challenge ya se consumió
	_, err = svc.FinishLogin(ctx, st, session.PurposeAuthentication, payload)
	require.ErrorIs(t, err, ErrMissingCeremonyPayload)
}

func TestWebAuthn_ManageCredentials(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	u := createUser(t, store, "ana@example.com", "hunter2hunter2")
	cred := storedCredential(t, store, u.ID, []byte("credential-aaaa"), 0)
	svc := newWebAuthnService(store, &stubVerifier{})
	ctx := context.Background()

	require.NoError(t, svc.RenameCredential(ctx, u.ID, cred.ID, "yubikey"))
	list, err := svc.ListCredentials(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "yubikey", *list[0].FriendlyName)

	require.ErrorIs(t, svc.RemoveCredential(ctx, u.ID, cred.ID+99), ErrCredentialNotFound)
	require.NoError(t, svc.RemoveCredential(ctx, u.ID, cred.ID))
	require.ErrorIs(t, svc.RemoveCredential(ctx, u.ID, cred.ID), ErrCredentialNotFound)
}
