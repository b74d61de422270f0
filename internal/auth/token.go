package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest is the form in which session tokens are persisted.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. It returns "" when the header is absent or malformed.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
