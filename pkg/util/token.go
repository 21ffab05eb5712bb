package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateVerificationCode returns a random 16-character hex token used for
// DNS TXT verification and membership invites.
func GenerateVerificationCode() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
