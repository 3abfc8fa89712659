package auth

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// webauthnUser adapta nuestro User + credenciales a la interfaz del stack
// WebAuthn. El handle es el ID numérico en big endian: estable y opaco.
type webauthnUser struct {
	user  *repository.User
	creds []repository.WebAuthnCredential
}

func (u *webauthnUser) WebAuthnID() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(u.user.ID))
	return b[:]
}

func (u *webauthnUser) WebAuthnName() string        { return u.user.Email }
func (u *webauthnUser) WebAuthnDisplayName() string { return u.user.Email }
func (u *webauthnUser) WebAuthnIcon() string        { return "" }

func (u *webauthnUser) WebAuthnCredentials() []webauthn.Credential {
	out := make([]webauthn.Credential, 0, len(u.creds))
	for _, c := range u.creds {
		if wc, ok := toLibraryCredential(c); ok {
			out = append(out, wc)
		}
	}
	return out
}

// toLibraryCredential decodifica la fila almacenada al tipo del stack.
// Filas con base64 corrupto se omiten en vez de romper la ceremonia.
func toLibraryCredential(c repository.WebAuthnCredential) (webauthn.Credential, bool) {
	id, err := base64.RawURLEncoding.DecodeString(c.CredentialID)
	if err != nil {
		return webauthn.Credential{}, false
	}
	pub, err := base64.RawURLEncoding.DecodeString(c.PublicKey)
	if err != nil {
		return webauthn.Credential{}, false
	}
	transports := make([]protocol.AuthenticatorTransport, 0, len(c.Transports))
	for _, t := range c.Transports {
		transports = append(transports, protocol.AuthenticatorTransport(t))
	}
	return webauthn.Credential{
		ID:              id,
		PublicKey:       pub,
		AttestationType: c.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			BackupEligible: c.BackedUp,
			BackupState:    c.BackedUp,
		},
		Authenticator: webauthn.Authenticator{
			SignCount: c.Counter,
		},
	}, true
}

// fromLibraryCredential arma la fila a persistir tras un registro exitoso.
func fromLibraryCredential(userID int64, wc *webauthn.Credential, friendlyName string) repository.WebAuthnCredential {
	transports := make([]string, 0, len(wc.Transport))
	for _, t := range wc.Transport {
		transports = append(transports, string(t))
	}
	var name *string
	if friendlyName != "" {
		name = &friendlyName
	}
	deviceType := "single_device"
	if wc.Flags.BackupEligible {
		deviceType = "multi_device"
	}
	return repository.WebAuthnCredential{
		UserID:          userID,
		CredentialID:    base64.RawURLEncoding.EncodeToString(wc.ID),
		PublicKey:       base64.RawURLEncoding.EncodeToString(wc.PublicKey),
		AttestationType: wc.AttestationType,
		Counter:         wc.Authenticator.SignCount,
		Transports:      transports,
		DeviceType:      deviceType,
		BackedUp:        wc.Flags.BackupState,
		FriendlyName:    name,
	}
}

// credentialExclusions evita que el authenticator re-registre una passkey
// que ya tiene.
func credentialExclusions(creds []repository.WebAuthnCredential) []protocol.CredentialDescriptor {
	out := make([]protocol.CredentialDescriptor, 0, len(creds))
	for _, c := range creds {
		id, err := base64.RawURLEncoding.DecodeString(c.CredentialID)
		if err != nil {
			continue
		}
		out = append(out, protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: id,
		})
	}
	return out
}
