package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed is the only error decryption ever returns. Wrong key,
// bad tag and corrupted ciphertext are indistinguishable to the caller.
var ErrDecryptionFailed = errors.New("decryption failed")

var ErrUnknownAlgorithm = errors.New("unknown encryption algorithm")

// Algorithm selects the AEAD used for a ticket's payloads.
type Algorithm string

const (
	AlgorithmAES256   Algorithm = "AES_256"
	AlgorithmChaCha20 Algorithm = "CHACHA20"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmAES256, AlgorithmChaCha20:
		return Algorithm(s), nil
	}
	return "", ErrUnknownAlgorithm
}

// KeySize returns the symmetric key length in bytes required by the algorithm.
func (a Algorithm) KeySize() int {
	return 32
}

func (a Algorithm) aead(key []byte) (cipher.AEAD, error) {
	switch a {
	case AlgorithmAES256:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case AlgorithmChaCha20:
		return chacha20poly1305.New(key)
	}
	return nil, ErrUnknownAlgorithm
}

// Encrypt seals plaintext under key with a fresh random nonce. The nonce is
// returned separately and must be stored alongside the ciphertext.
func Encrypt(plaintext, key []byte, algo Algorithm) (ciphertext, nonce []byte, err error) {
	aead, err := algo.aead(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext with the given key and nonce. Every failure mode
// collapses into ErrDecryptionFailed so callers cannot build an oracle out of
// the reason.
func Decrypt(ciphertext, key, nonce []byte, algo Algorithm) ([]byte, error) {
	aead, err := algo.aead(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	if len(nonce) != aead.NonceSize() {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// EncodeBytes and DecodeBytes are the storage encoding for ciphertexts and
// nonces.
func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBytes(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// GenerateSalt returns a fresh random per-ticket salt, url-safe base64 encoded.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	return encodeSalt(salt), nil
}
