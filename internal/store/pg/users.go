package pg

import (
	"context"
	"errors"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

type userRepo struct{ s *Store }

const userColumns = `id, email, password_hash, is_two_factor_enabled,
	totp_secret_encrypted, totp_recovery_codes_encrypted, created_at, updated_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsTwoFactorEnabled,
		&u.TOTPSecretEncrypted, &u.RecoveryCodesEncrypted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, email, passwordHash string) (*repository.User, error) {
	row := r.s.q.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING `+userColumns, email, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return scanUser(r.s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*repository.User, error) {
	return scanUser(r.s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id int64) (*repository.User, error) {
	if !r.s.inTx {
		return r.GetByID(ctx, id)
	}
	return scanUser(r.s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (r *userRepo) SetTOTPSecret(ctx context.Context, id int64, secretEnc string) error {
	_, err := r.s.q.Exec(ctx, `
		UPDATE users SET totp_secret_encrypted = $2, updated_at = now()
		WHERE id = $1`, id, secretEnc)
	return err
}

func (r *userRepo) EnableTOTP(ctx context.Context, id int64, recoveryEnc string) error {
	_, err := r.s.q.Exec(ctx, `
		UPDATE users SET is_two_factor_enabled = TRUE,
			totp_recovery_codes_encrypted = $2,
			updated_at = now()
		WHERE id = $1`, id, recoveryEnc)
	return err
}

func (r *userRepo) SetRecoveryCodes(ctx context.Context, id int64, recoveryEnc *string) error {
	_, err := r.s.q.Exec(ctx, `
		UPDATE users SET totp_recovery_codes_encrypted = $2, updated_at = now()
		WHERE id = $1`, id, recoveryEnc)
	return err
}

func (r *userRepo) DisableTOTP(ctx context.Context, id int64) error {
	// secreto, flag y codes caen juntos o no caen
	_, err := r.s.q.Exec(ctx, `
		UPDATE users SET is_two_factor_enabled = FALSE,
			totp_secret_encrypted = NULL,
			totp_recovery_codes_encrypted = NULL,
			updated_at = now()
		WHERE id = $1`, id)
	return err
}

func (r *userRepo) List(ctx context.Context) ([]repository.User, error) {
	rows, err := r.s.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.User
	for rows.Next() {
		var u repository.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsTwoFactorEnabled,
			&u.TOTPSecretEncrypted, &u.RecoveryCodesEncrypted, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
