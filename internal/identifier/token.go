package identifier

import (
	"crypto/rand"
	"fmt"
)

const (
	TokenLength   = 32
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// largest multiple of len(tokenAlphabet) that fits in a byte
	tokenRejectAbove = 256 - 256%len(tokenAlphabet)
)

// AccessToken returns a 32-character token drawn uniformly from [A-Za-z0-9].
// Bytes at or above tokenRejectAbove are discarded so the modulo has no bias.
func AccessToken() (string, error) {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength*2)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("identifier: read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= tokenRejectAbove {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}

// ValidAccessToken reports whether s is a well-formed access token.
func ValidAccessToken(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
