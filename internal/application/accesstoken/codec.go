package accesstoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// secretBytes gives 256 bits of entropy per secret.
const secretBytes = 32

// GenerateSecret produces a fresh random bearer secret, hex-encoded. The
// caller hands it out exactly once; only its digest is ever stored.
func GenerateSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// DigestSecret returns the stored, irreversible form of a raw secret.
// Deterministic and side-effect free.
func DigestSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}
