package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// NewULID returns a lexicographically sortable unique identifier: 16 hex
// characters of unix-millis followed by 10 random bytes in hex.
func NewULID() string {
	random := make([]byte, 10)
	if _, err := io.ReadFull(rand.Reader, random); err != nil {
		// crypto/rand failing is unrecoverable for id generation.
		panic(fmt.Sprintf("ulid entropy unavailable: %v", err))
	}
	return fmt.Sprintf("%016x", time.Now().UnixMilli()) + hex.EncodeToString(random)
}
