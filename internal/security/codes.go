package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"strings"
)

// codeBytes gives handover and return codes 128 bits of entropy.
const codeBytes = 16

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewCode returns a random confirmation code exchanged between owner and
// requester at handover or return.
func NewCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return codeEncoding.EncodeToString(b), nil
}

// NormalizeCode makes typed codes comparable: case and surrounding or
// grouping whitespace are ignored.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// CodesEqual compares a submitted code with the stored one in constant time.
// An empty stored code never matches.
func CodesEqual(stored, submitted string) bool {
	if stored == "" {
		return false
	}
	a, b := NormalizeCode(stored), NormalizeCode(submitted)
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
