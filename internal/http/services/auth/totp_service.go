package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/email"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/observability/metrics"
	"github.com/dropDatabas3/strongjohn/internal/security/secretbox"
	"github.com/dropDatabas3/strongjohn/internal/security/totp"
)

// TOTPDeps contiene las dependencias del servicio TOTP.
type TOTPDeps struct {
	Store         repository.Store
	Codec         *secretbox.Codec
	Notifier      *email.Notifier
	Issuer        string
	Skew          uint
	RecoveryCount int
}

// TOTPService maneja el ciclo de vida del segundo factor TOTP:
// setup -> enable -> verify/rotate -> disable.
type TOTPService struct {
	deps TOTPDeps
}

func NewTOTPService(deps TOTPDeps) *TOTPService {
	if deps.Skew == 0 {
		deps.Skew = 1
	}
	if deps.RecoveryCount == 0 {
		deps.RecoveryCount = 10
	}
	return &TOTPService{deps: deps}
}

// Setup genera un secreto nuevo y lo guarda cifrado SIN habilitar 2FA.
// El secreto queda pendiente hasta que Enable lo confirme con un código.
func (s *TOTPService) Setup(ctx context.Context, userID int64) (*totp.Enrollment, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("Setup"),
		logger.UserID(userID),
	)

	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsTwoFactorEnabled {
		return nil, ErrAlreadyEnabled
	}

	enr, err := totp.GenerateSecret(s.deps.Issuer, user.Email)
	if err != nil {
		return nil, err
	}
	enc, err := s.deps.Codec.Encrypt([]byte(enr.SecretBase32))
	if err != nil {
		return nil, err
	}
	if err := s.deps.Store.Users().SetTOTPSecret(ctx, userID, enc); err != nil {
		return nil, err
	}

	log.Info("totp secret generated, pending confirmation")
	return enr, nil
}

// Enable confirma el enrolamiento: verifica un código contra el secreto
// pendiente, genera recovery codes y levanta el flag. Todo bajo lock de la
// fila del usuario.
func (s *TOTPService) Enable(ctx context.Context, userID int64, code string) ([]string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("Enable"),
		logger.UserID(userID),
	)

	var (
		codes     []string
		userEmail string
	)
	err := s.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.IsTwoFactorEnabled {
			return ErrAlreadyEnabled
		}
		secret, ok := s.decryptSecret(user)
		if !ok {
			return ErrSecretNotConfigured
		}
		if !totp.Verify(secret, code, time.Now(), s.deps.Skew) {
			return ErrCodeInvalid
		}

		codes, err = totp.GenerateRecoveryCodes(s.deps.RecoveryCount)
		if err != nil {
			return err
		}
		enc, err := s.deps.Codec.EncryptJSON(codes)
		if err != nil {
			return err
		}
		userEmail = user.Email
		return tx.Users().EnableTOTP(ctx, userID, enc)
	})
	if err != nil {
		return nil, err
	}

	log.Info("two-factor enabled", logger.Count(len(codes)))
	s.deps.Notifier.TwoFactorEnabled(userEmail)
	return codes, nil
}

// Disable apaga 2FA: limpia flag, secreto y recovery codes en una sola
// escritura y revoca los dispositivos de confianza.
func (s *TOTPService) Disable(ctx context.Context, userID int64) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("Disable"),
		logger.UserID(userID),
	)

	var userEmail string
	err := s.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if !user.IsTwoFactorEnabled {
			return ErrNotEnabled
		}
		userEmail = user.Email
		if err := tx.Users().DisableTOTP(ctx, userID); err != nil {
			return err
		}
		return tx.TrustedDevices().DeleteByUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	log.Info("two-factor disabled")
	s.deps.Notifier.TwoFactorDisabled(userEmail)
	return nil
}

// RotateRecovery reemplaza el set completo de recovery codes.
// Los códigos anteriores dejan de servir en el mismo commit.
func (s *TOTPService) RotateRecovery(ctx context.Context, userID int64) ([]string, error) {
	var (
		codes     []string
		userEmail string
	)
	err := s.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if !user.IsTwoFactorEnabled {
			return ErrNotEnabled
		}

		codes, err = totp.GenerateRecoveryCodes(s.deps.RecoveryCount)
		if err != nil {
			return err
		}
		enc, err := s.deps.Codec.EncryptJSON(codes)
		if err != nil {
			return err
		}
		userEmail = user.Email
		return tx.Users().SetRecoveryCodes(ctx, userID, &enc)
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("recovery codes rotated",
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.UserID(userID),
	)
	s.deps.Notifier.RecoveryCodesRotated(userEmail)
	return codes, nil
}

// VerifyCode valida un código de segundo factor durante el sign-in.
// Acepta el TOTP de la ventana actual (con skew) o un recovery code exacto.
// Un recovery code aceptado se elimina del set dentro de la misma
// transacción: dos consumos concurrentes del mismo código no pueden pasar.
func (s *TOTPService) VerifyCode(ctx context.Context, userID int64, code string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("VerifyCode"),
		logger.UserID(userID),
	)

	err := s.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if !user.IsTwoFactorEnabled {
			return ErrSecretNotConfigured
		}
		secret, ok := s.decryptSecret(user)
		if !ok {
			return ErrSecretNotConfigured
		}

		if totp.Verify(secret, code, time.Now(), s.deps.Skew) {
			metrics.MFAVerifications.WithLabelValues("totp", "success").Inc()
			return nil
		}

		// Fallback: recovery code de un solo uso.
		remaining, matched := s.consumeRecoveryCode(user, code)
		if !matched {
			return ErrCodeInvalid
		}
		enc, err := s.deps.Codec.EncryptJSON(remaining)
		if err != nil {
			return err
		}
		if err := tx.Users().SetRecoveryCodes(ctx, userID, &enc); err != nil {
			return err
		}
		metrics.MFAVerifications.WithLabelValues("recovery", "success").Inc()
		metrics.RecoveryCodesConsumed.Inc()
		log.Info("recovery code consumed", logger.Count(len(remaining)))
		return nil
	})
	if err == ErrCodeInvalid {
		metrics.MFAVerifications.WithLabelValues("totp", "failed").Inc()
	}
	return err
}

// decryptSecret devuelve el secreto TOTP en claro. Ciphertext ausente o
// ilegible cuenta como "no configurado", nunca como error.
func (s *TOTPService) decryptSecret(user *repository.User) (string, bool) {
	if user.TOTPSecretEncrypted == nil || *user.TOTPSecretEncrypted == "" {
		return "", false
	}
	plain, ok := s.deps.Codec.Decrypt(*user.TOTPSecretEncrypted)
	if !ok {
		return "", false
	}
	return string(plain), true
}

// consumeRecoveryCode busca una coincidencia exacta y devuelve el set sin
// ese código. Blob ausente o ilegible se trata como set vacío.
func (s *TOTPService) consumeRecoveryCode(user *repository.User, code string) ([]string, bool) {
	if user.RecoveryCodesEncrypted == nil {
		return nil, false
	}
	var codes []string
	if !s.deps.Codec.DecryptJSON(*user.RecoveryCodesEncrypted, &codes) {
		return nil, false
	}
	for i, c := range codes {
		if c == code {
			return append(codes[:i:i], codes[i+1:]...), true
		}
	}
	return nil, false
}
