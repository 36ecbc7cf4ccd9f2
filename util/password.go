package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const passwordHashPrefix = "argon2id"

// Argon2id parameters.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// GenerateSalt returns a random salt, base64 encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, argonSaltLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// HashPasswordArgon2 hashes password with the given base64 salt and returns
// "argon2id$<salt>$<hash>".
func HashPasswordArgon2(password, salt string) (string, error) {
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return strings.Join([]string{passwordHashPrefix, salt, base64.RawStdEncoding.EncodeToString(key)}, "$"), nil
}

// HashPassword hashes password with a fresh salt.
func HashPassword(password string) (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return HashPasswordArgon2(password, salt)
}

// VerifyPassword reports whether plain matches a hash produced by HashPassword.
func VerifyPassword(plain, hashed string) bool {
	parts := strings.Split(hashed, "$")
	if len(parts) != 3 || parts[0] != passwordHashPrefix {
		return false
	}
	recomputed, err := HashPasswordArgon2(plain, parts[1])
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(recomputed), []byte(hashed)) == 1
}
