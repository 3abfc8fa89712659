// Package secretbox cifra valores sensibles (secretos TOTP, recovery codes)
// antes de persistirlos. AES-256-GCM, formato base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12 // AES-GCM recommended nonce (96 bits)
	requiredKeyLength = 32 // AES-256
	sep               = "|"
)

// Codec encrypts and decrypts small payloads with a fixed master key.
// The key is injected at construction; no process-global state.
type Codec struct {
	key []byte
}

// New builds a Codec from a base64-encoded 32-byte master key.
func New(masterKeyB64 string) (*Codec, error) {
	k, err := base64.StdEncoding.DecodeString(strings.TrimSpace(masterKeyB64))
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	return NewFromKey(k)
}

// NewFromKey builds a Codec from a raw 32-byte key.
func NewFromKey(key []byte) (*Codec, error) {
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", requiredKeyLength, len(key))
	}
	c := &Codec{key: make([]byte, requiredKeyLength)}
	copy(c.key, key)
	return c, nil
}

// EphemeralKeyB64 genera una llave aleatoria en base64. Solo para dev:
// lo cifrado con ella no sobrevive al proceso.
func EphemeralKeyB64() string {
	k := make([]byte, requiredKeyLength)
	_, _ = io.ReadFull(rand.Reader, k)
	return base64.StdEncoding.EncodeToString(k)
}

// Encrypt seals plainText and returns base64(nonce)|base64(ciphertext).
func (c *Codec) Encrypt(plainText []byte) (string, error) {
	aesgcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := aesgcm.Seal(nil, nonce, plainText, nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a value produced by Encrypt. Malformed or foreign ciphertext
// returns (nil, false), never an error: callers treat it as "not configured".
func (c *Codec) Decrypt(cipherText string) ([]byte, bool) {
	parts := strings.Split(cipherText, sep)
	if len(parts) != 2 {
		return nil, false
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSizeGCM {
		return nil, false
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	aesgcm, err := c.gcm()
	if err != nil {
		return nil, false
	}
	pt, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, false
	}
	return pt, true
}

// EncryptJSON marshals v and encrypts the result.
func (c *Codec) EncryptJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return c.Encrypt(b)
}

// DecryptJSON decrypts and unmarshals into out. Returns false on any
// malformed input, same contract as Decrypt.
func (c *Codec) DecryptJSON(cipherText string, out any) bool {
	pt, ok := c.Decrypt(cipherText)
	if !ok {
		return false
	}
	return json.Unmarshal(pt, out) == nil
}

func (c *Codec) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	return cipher.NewGCM(block)
}
