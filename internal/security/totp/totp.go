// Package totp wraps the pquerna/otp library for TOTP enrollment and
// verification (RFC 6238, SHA1, 6 digits, 30s period).
package totp

import (
	"bytes"
	"crypto/rand"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	period     = 30
	secretSize = 20
	qrSize     = 256
)

// Enrollment is everything a client needs to add the secret to an
// authenticator app.
type Enrollment struct {
	SecretBase32 string
	URI          string
	QRPNG        []byte
}

// GenerateSecret creates a fresh TOTP secret plus otpauth:// URI and QR PNG.
func GenerateSecret(issuer, accountName string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      period,
		SecretSize:  secretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &Enrollment{
		SecretBase32: key.Secret(),
		URI:          key.URL(),
		QRPNG:        buf.Bytes(),
	}, nil
}

// Verify checks a 6-digit code against the secret at time t, accepting the
// adjacent window on each side (skew steps) for clock drift.
func Verify(secretB32, code string, t time.Time, skew uint) bool {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return false
	}
	ok, err := totp.ValidateCustom(code, secretB32, t, totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// recoveryAlphabet: sin I, O, 0, 1 para evitar confusiones al transcribir.
const recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const recoveryCodeLen = 10

// GenerateRecoveryCodes returns count unguessable one-time codes.
func GenerateRecoveryCodes(count int) ([]string, error) {
	out := make([]string, count)
	for i := 0; i < count; i++ {
		code := make([]byte, recoveryCodeLen)
		buf := make([]byte, recoveryCodeLen)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		for j := range code {
			code[j] = recoveryAlphabet[int(buf[j])%len(recoveryAlphabet)]
		}
		out[i] = string(code)
	}
	return out, nil
}
