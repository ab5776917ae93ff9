// Package util provides small helpers shared across AIO bot components.
package util

import (
	"math/rand"
	"strings"
)

// userCodeChars is the alphabet for user codes: uppercase letters and digits.
const userCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UserCodeLength is the length of the unique code minted at registration.
const UserCodeLength = 8

// GenerateUserCode generates the 8-character uppercase-alphanumeric code
// assigned to a profile when registration is confirmed.
func GenerateUserCode() string {
	return GenerateUpperAlphaNumeric(UserCodeLength)
}

// GenerateUpperAlphaNumeric generates a random string of the given length
// drawn from uppercase letters and digits. Uses math/rand/v2; the codes are
// identifiers, not secrets.
func GenerateUpperAlphaNumeric(length int) string {
	if length <= 0 {
		return ""
	}

	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		builder.WriteByte(userCodeChars[rand.Intn(len(userCodeChars))])
	}
	return builder.String()
}
