package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	saltLength       = 16
)

func encodeSalt(salt []byte) string {
	return base64.RawURLEncoding.EncodeToString(salt)
}

// DeriveKey turns an ordered set of passkeys and a per-ticket salt into a
// symmetric key sized for the algorithm. Passkeys are trimmed and sorted
// lexicographically before concatenation, so any submission order of the same
// set of secrets derives the same key; access-order enforcement happens
// separately against the stored passkey hashes.
func DeriveKey(passkeys []string, salt string, algo Algorithm) []byte {
	normalized := make([]string, len(passkeys))
	for i, p := range passkeys {
		normalized[i] = strings.TrimSpace(p)
	}
	sort.Strings(normalized)

	trimmedSalt := strings.TrimSpace(salt)
	keyInput := strings.Join(normalized, "|") + "|" + trimmedSalt

	return pbkdf2.Key([]byte(keyInput), []byte(trimmedSalt), pbkdf2Iterations, algo.KeySize(), sha256.New)
}
