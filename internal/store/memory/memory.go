// Package memory implements repository.Store in process memory.
// Used by unit tests and the dev profile; not for production.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
)

type data struct {
	nextUserID int64
	nextCredID int64
	users      map[int64]*repository.User
	byEmail    map[string]int64
	creds      map[string]*repository.WebAuthnCredential // by credential_id
	trusted    map[int64]map[string]time.Time            // userID -> tokenHash -> expiry
}

type Store struct {
	mu sync.Mutex
	d  *data
	// held marks a transactional view created by WithinTx: the outer lock is
	// already taken, inner repo calls must not lock again.
	held bool
}

func New() *Store {
	return &Store{d: &data{
		nextUserID: 1,
		nextCredID: 1,
		users:      make(map[int64]*repository.User),
		byEmail:    make(map[string]int64),
		creds:      make(map[string]*repository.WebAuthnCredential),
		trusted:    make(map[int64]map[string]time.Time),
	}}
}

func (s *Store) Users() repository.UserRepository                   { return &userRepo{s} }
func (s *Store) Credentials() repository.CredentialRepository       { return &credentialRepo{s} }
func (s *Store) TrustedDevices() repository.TrustedDeviceRepository { return &trustedDeviceRepo{s} }

// WithinTx holds the store lock for the whole callback, which gives the same
// serialization as the row locks in the pg implementation.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.held {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &Store{d: s.d, held: true})
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) lock() func() {
	if s.held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func cloneUser(u *repository.User) *repository.User {
	cp := *u
	if u.TOTPSecretEncrypted != nil {
		v := *u.TOTPSecretEncrypted
		cp.TOTPSecretEncrypted = &v
	}
	if u.RecoveryCodesEncrypted != nil {
		v := *u.RecoveryCodesEncrypted
		cp.RecoveryCodesEncrypted = &v
	}
	return &cp
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, email, passwordHash string) (*repository.User, error) {
	defer r.s.lock()()
	d := r.s.d
	key := strings.ToLower(email)
	if _, exists := d.byEmail[key]; exists {
		return nil, repository.ErrDuplicate
	}
	now := time.Now().UTC()
	u := &repository.User{
		ID:           d.nextUserID,
		Email:        key,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.nextUserID++
	d.users[u.ID] = u
	d.byEmail[key] = u.ID
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	defer r.s.lock()()
	id, ok := r.s.d.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return cloneUser(r.s.d.users[id]), nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*repository.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id int64) (*repository.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) SetTOTPSecret(ctx context.Context, id int64, secretEnc string) error {
	defer r.s.lock()()
	if u, ok := r.s.d.users[id]; ok {
		u.TOTPSecretEncrypted = &secretEnc
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *userRepo) EnableTOTP(ctx context.Context, id int64, recoveryEnc string) error {
	defer r.s.lock()()
	if u, ok := r.s.d.users[id]; ok {
		u.IsTwoFactorEnabled = true
		u.RecoveryCodesEncrypted = &recoveryEnc
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *userRepo) SetRecoveryCodes(ctx context.Context, id int64, recoveryEnc *string) error {
	defer r.s.lock()()
	if u, ok := r.s.d.users[id]; ok {
		u.RecoveryCodesEncrypted = recoveryEnc
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *userRepo) DisableTOTP(ctx context.Context, id int64) error {
	defer r.s.lock()()
	if u, ok := r.s.d.users[id]; ok {
		u.IsTwoFactorEnabled = false
		u.TOTPSecretEncrypted = nil
		u.RecoveryCodesEncrypted = nil
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]repository.User, error) {
	defer r.s.lock()()
	out := make([]repository.User, 0, len(r.s.d.users))
	for _, u := range r.s.d.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type credentialRepo struct{ s *Store }

func cloneCred(c *repository.WebAuthnCredential) *repository.WebAuthnCredential {
	cp := *c
	cp.Transports = append([]string(nil), c.Transports...)
	if c.FriendlyName != nil {
		v := *c.FriendlyName
		cp.FriendlyName = &v
	}
	return &cp
}

func (r *credentialRepo) Create(ctx context.Context, cred repository.WebAuthnCredential) (*repository.WebAuthnCredential, error) {
	defer r.s.lock()()
	d := r.s.d
	if _, exists := d.creds[cred.CredentialID]; exists {
		return nil, repository.ErrDuplicate
	}
	now := time.Now().UTC()
	cred.ID = d.nextCredID
	d.nextCredID++
	cred.CreatedAt = now
	cred.UpdatedAt = now
	c := cloneCred(&cred)
	d.creds[cred.CredentialID] = c
	return cloneCred(c), nil
}

func (r *credentialRepo) GetByCredentialID(ctx context.Context, credentialID string) (*repository.WebAuthnCredential, error) {
	defer r.s.lock()()
	c, ok := r.s.d.creds[credentialID]
	if !ok {
		return nil, nil
	}
	return cloneCred(c), nil
}

func (r *credentialRepo) GetByCredentialIDForUpdate(ctx context.Context, credentialID string) (*repository.WebAuthnCredential, error) {
	return r.GetByCredentialID(ctx, credentialID)
}

func (r *credentialRepo) ListByUser(ctx context.Context, userID int64) ([]repository.WebAuthnCredential, error) {
	defer r.s.lock()()
	var out []repository.WebAuthnCredential
	for _, c := range r.s.d.creds {
		if c.UserID == userID {
			out = append(out, *cloneCred(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *credentialRepo) UpdateCounter(ctx context.Context, credentialID string, counter uint32) error {
	defer r.s.lock()()
	if c, ok := r.s.d.creds[credentialID]; ok {
		c.Counter = counter
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *credentialRepo) Rename(ctx context.Context, userID, id int64, friendlyName string) error {
	defer r.s.lock()()
	for _, c := range r.s.d.creds {
		if c.UserID == userID && c.ID == id {
			c.FriendlyName = &friendlyName
			c.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (r *credentialRepo) Delete(ctx context.Context, userID, id int64) (int64, error) {
	defer r.s.lock()()
	for key, c := range r.s.d.creds {
		if c.UserID == userID && c.ID == id {
			delete(r.s.d.creds, key)
			return 1, nil
		}
	}
	return 0, nil
}

type trustedDeviceRepo struct{ s *Store }

func (r *trustedDeviceRepo) Add(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	defer r.s.lock()()
	m, ok := r.s.d.trusted[userID]
	if !ok {
		m = make(map[string]time.Time)
		r.s.d.trusted[userID] = m
	}
	m[tokenHash] = expiresAt
	return nil
}

func (r *trustedDeviceRepo) IsTrusted(ctx context.Context, userID int64, tokenHash string) (bool, error) {
	defer r.s.lock()()
	exp, ok := r.s.d.trusted[userID][tokenHash]
	return ok && exp.After(time.Now()), nil
}

func (r *trustedDeviceRepo) DeleteByUser(ctx context.Context, userID int64) error {
	defer r.s.lock()()
	delete(r.s.d.trusted, userID)
	return nil
}
