// Package cryptox turns chat text into opaque ciphertext for storage and back.
package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sentinel is what readers get in place of text that can no longer be decrypted.
const Sentinel = "[Decryption Error]"

const KeySize = chacha20poly1305.KeySize

var (
	ErrDecryption = errors.New("decryption failed")
	ErrInvalidKey = errors.New("invalid encryption key")
)

var encoding = base64.URLEncoding

// Codec seals message text with XChaCha20-Poly1305.
//
// Every call to Encrypt draws a fresh 24-byte nonce, so the same plaintext
// never produces the same token twice. The token is
// base64url(nonce || ciphertext || tag) and is safe to store as text.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec around a raw 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Codec{aead: aead}, nil
}

// ParseKey decodes a url-safe base64 key as produced by GenerateKey.
func ParseKey(encoded string) ([]byte, error) {
	key, err := encoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	return key, nil
}

// NewCodecFromString is ParseKey followed by NewCodec.
func NewCodecFromString(encoded string) (*Codec, error) {
	key, err := ParseKey(encoded)
	if err != nil {
		return nil, err
	}
	return NewCodec(key)
}

// GenerateKey returns a new random key in its url-safe base64 form.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return encoding.EncodeToString(key), nil
}

func (c *Codec) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return encoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any malformed, truncated, tampered or
// foreign-key token yields ErrDecryption.
func (c *Codec) Decrypt(token string) ([]byte, error) {
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: token too short", ErrDecryption)
	}
	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// DecryptOrSentinel never fails: undecryptable tokens read as Sentinel.
func (c *Codec) DecryptOrSentinel(token string) (string, bool) {
	plaintext, err := c.Decrypt(token)
	if err != nil {
		return Sentinel, false
	}
	return string(plaintext), true
}
