package pg

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

type credentialRepo struct{ s *Store }

const credColumns = `id, user_id, credential_id, public_key, attestation_type,
	counter, transports, device_type, backed_up, friendly_name, created_at, updated_at`

func scanCredential(row pgx.Row) (*repository.WebAuthnCredential, error) {
	var c repository.WebAuthnCredential
	err := row.Scan(&c.ID, &c.UserID, &c.CredentialID, &c.PublicKey, &c.AttestationType,
		&c.Counter, &c.Transports, &c.DeviceType, &c.BackedUp, &c.FriendlyName,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *credentialRepo) Create(ctx context.Context, cred repository.WebAuthnCredential) (*repository.WebAuthnCredential, error) {
	row := r.s.q.QueryRow(ctx, `
		INSERT INTO webauthn_credentials
			(user_id, credential_id, public_key, attestation_type, counter,
			 transports, device_type, backed_up, friendly_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+credColumns,
		cred.UserID, cred.CredentialID, cred.PublicKey, cred.AttestationType,
		cred.Counter, cred.Transports, cred.DeviceType, cred.BackedUp, cred.FriendlyName)
	c, err := scanCredential(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return c, nil
}

func (r *credentialRepo) GetByCredentialID(ctx context.Context, credentialID string) (*repository.WebAuthnCredential, error) {
	return scanCredential(r.s.q.QueryRow(ctx,
		`SELECT `+credColumns+` FROM webauthn_credentials WHERE credential_id = $1`, credentialID))
}

func (r *credentialRepo) GetByCredentialIDForUpdate(ctx context.Context, credentialID string) (*repository.WebAuthnCredential, error) {
	if !r.s.inTx {
		return r.GetByCredentialID(ctx, credentialID)
	}
	return scanCredential(r.s.q.QueryRow(ctx,
		`SELECT `+credColumns+` FROM webauthn_credentials WHERE credential_id = $1 FOR UPDATE`, credentialID))
}

func (r *credentialRepo) ListByUser(ctx context.Context, userID int64) ([]repository.WebAuthnCredential, error) {
	rows, err := r.s.q.Query(ctx,
		`SELECT `+credColumns+` FROM webauthn_credentials WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.WebAuthnCredential
	for rows.Next() {
		var c repository.WebAuthnCredential
		if err := rows.Scan(&c.ID, &c.UserID, &c.CredentialID, &c.PublicKey, &c.AttestationType,
			&c.Counter, &c.Transports, &c.DeviceType, &c.BackedUp, &c.FriendlyName,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *credentialRepo) UpdateCounter(ctx context.Context, credentialID string, counter uint32) error {
	_, err := r.s.q.Exec(ctx, `
		UPDATE webauthn_credentials SET counter = $2, updated_at = now()
		WHERE credential_id = $1`, credentialID, counter)
	return err
}

func (r *credentialRepo) Rename(ctx context.Context, userID, id int64, friendlyName string) error {
	_, err := r.s.q.Exec(ctx, `
		UPDATE webauthn_credentials SET friendly_name = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2`, userID, id, friendlyName)
	return err
}

func (r *credentialRepo) Delete(ctx context.Context, userID, id int64) (int64, error) {
	tag, err := r.s.q.Exec(ctx,
		`DELETE FROM webauthn_credentials WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type trustedDeviceRepo struct{ s *Store }

func (r *trustedDeviceRepo) Add(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.s.q.Exec(ctx, `
		INSERT INTO trusted_devices (user_id, token_hash, expires_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, token_hash) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		userID, tokenHash, expiresAt)
	return err
}

func (r *trustedDeviceRepo) IsTrusted(ctx context.Context, userID int64, tokenHash string) (bool, error) {
	var ok bool
	err := r.s.q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM trusted_devices
			WHERE user_id = $1 AND token_hash = $2 AND expires_at > now()
		)`, userID, tokenHash).Scan(&ok)
	return ok, err
}

func (r *trustedDeviceRepo) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM trusted_devices WHERE user_id = $1`, userID)
	return err
}
