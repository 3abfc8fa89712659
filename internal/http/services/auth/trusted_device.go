package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/security/tokens"
)

// TrustedDeviceService emite y valida los tokens "recordar este dispositivo"
// que permiten saltear el paso MFA. El token es un JWT HS256 cuyo jti se
// persiste hasheado: validar requiere firma válida Y fila vigente, así que
// revocar es borrar la fila.
type TrustedDeviceService struct {
	store      repository.Store
	signingKey []byte
	ttl        time.Duration
	enabled    bool
}

func NewTrustedDeviceService(store repository.Store, signingKey string, ttl time.Duration, enabled bool) *TrustedDeviceService {
	return &TrustedDeviceService{
		store:      store,
		signingKey: []byte(signingKey),
		ttl:        ttl,
		enabled:    enabled,
	}
}

func (s *TrustedDeviceService) Enabled() bool { return s.enabled }

func (s *TrustedDeviceService) TTL() time.Duration { return s.ttl }

// Issue genera un token nuevo para el usuario y registra su hash.
func (s *TrustedDeviceService) Issue(ctx context.Context, userID int64) (string, error) {
	if !s.enabled {
		return "", nil
	}

	jti, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", err
	}
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := jwtv5.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        jti,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(expiresAt),
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}

	if err := s.store.TrustedDevices().Add(ctx, userID, tokens.SHA256Base64URL(jti), expiresAt); err != nil {
		return "", err
	}
	return signed, nil
}

// Check valida el token del cookie para el usuario dado. Cualquier defecto
// (firma, expiración, sub ajeno, fila revocada) devuelve false sin error:
// un token malo solo significa que MFA no se saltea.
func (s *TrustedDeviceService) Check(ctx context.Context, userID int64, tokenString string) bool {
	if !s.enabled || tokenString == "" {
		return false
	}

	parsed, err := jwtv5.ParseWithClaims(tokenString, &jwtv5.RegisteredClaims{}, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return false
	}
	claims, ok := parsed.Claims.(*jwtv5.RegisteredClaims)
	if !ok {
		return false
	}
	if claims.Subject != strconv.FormatInt(userID, 10) || claims.ID == "" {
		return false
	}

	trusted, err := s.store.TrustedDevices().IsTrusted(ctx, userID, tokens.SHA256Base64URL(claims.ID))
	if err != nil {
		logger.From(ctx).Warn("trusted device lookup failed", logger.Err(err))
		return false
	}
	return trusted
}

// RevokeAll borra todos los dispositivos de confianza del usuario.
func (s *TrustedDeviceService) RevokeAll(ctx context.Context, userID int64) error {
	return s.store.TrustedDevices().DeleteByUser(ctx, userID)
}
