package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for passphrase-derived keys (OWASP recommended minimum).
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32 // AES-256
)

var ErrInvalidKey = errors.New("vault key must be 32 bytes (64 hex chars)")

// Vault encrypts license key material at rest with AES-256-GCM. Every
// Encrypt call draws a fresh random nonce, so identical plaintexts never
// produce identical ciphertexts; duplicate detection uses Fingerprint
// instead of comparing ciphertext.
type Vault struct {
	aead cipher.AEAD
}

// New builds a Vault from a 64-char hex key.
func New(hexKey string) (*Vault, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return fromKey(key)
}

// NewFromPassphrase derives the AES key from a passphrase and a static
// application salt via scrypt. The salt must be at least 16 bytes.
func NewFromPassphrase(passphrase, salt string) (*Vault, error) {
	if passphrase == "" {
		return nil, errors.New("vault passphrase is empty")
	}
	if len(salt) < 16 {
		return nil, errors.New("vault salt must be at least 16 bytes")
	}
	key, err := scrypt.Key([]byte(passphrase), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	return fromKey(key)
}

func fromKey(key []byte) (*Vault, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals the plaintext and returns base64(nonce || ciphertext || tag).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("plaintext is empty")
	}
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a payload produced by Encrypt, verifying the GCM tag.
func (v *Vault) Decrypt(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if len(raw) <= v.aead.NonceSize() {
		return "", errors.New("payload too short")
	}
	nonce, ciphertext := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plain, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Fingerprint is the deterministic sha256 hex of a plaintext key, used as
// the duplicate-detection index during bulk import.
func Fingerprint(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
