package iracing

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// HashCredentials derives the value iRacing expects in the `password` field of
// a login request: base64(sha256(password + lowercase(email))).
//
// The raw password never leaves the process.
func HashCredentials(password, email string) string {
	sum := sha256.Sum256([]byte(password + strings.ToLower(email)))
	return base64.StdEncoding.EncodeToString(sum[:])
}
