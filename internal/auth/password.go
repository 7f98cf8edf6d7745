package auth

import (
	"regexp"

	"github.com/alexedwards/argon2id"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword produces an Argon2id hash; the parameters travel inside the
// encoded hash, so verification needs no extra state.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argonParams)
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}

var (
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`[0-9]`)
)

// ValidPasswordStrength requires 8+ characters with at least one uppercase
// letter, one lowercase letter and one digit.
func ValidPasswordStrength(password string) bool {
	if len(password) < 8 {
		return false
	}

	return upperRe.MatchString(password) &&
		lowerRe.MatchString(password) &&
		digitRe.MatchString(password)
}
