package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrMalformedPasswordHash = errors.New("malformed password hash")
	ErrPasswordHashVersion   = errors.New("unsupported password hash version")
)

// HashParams tunes the argon2id key derivation. Changing them only affects
// newly created hashes; verification reads the parameters back from the
// encoded value.
type HashParams struct {
	MemoryKiB uint32
	Passes    uint32
	Lanes     uint8
	SaltBytes uint32
	KeyBytes  uint32
}

var DefaultHashParams = HashParams{
	MemoryKiB: 64 * 1024,
	Passes:    3,
	Lanes:     2,
	SaltBytes: 16,
	KeyBytes:  32,
}

// HashPassword derives an argon2id hash and encodes it with its parameters
// in the standard $argon2id$v=..$m=..,t=..,p=..$salt$key form.
func HashPassword(password string, p HashParams) (string, error) {
	salt := make([]byte, p.SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Passes, p.MemoryKiB, p.Lanes, p.KeyBytes)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Passes, p.Lanes,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword re-derives the key from the candidate password using the
// parameters embedded in the encoded hash and compares in constant time.
// A mismatch yields ErrInvalidCredentials.
func VerifyPassword(encoded, password string) error {
	p, salt, key, err := parseEncodedHash(encoded)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Passes, p.MemoryKiB, p.Lanes, p.KeyBytes)
	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func parseEncodedHash(encoded string) (HashParams, []byte, []byte, error) {
	var p HashParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrMalformedPasswordHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrPasswordHashVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Passes, &p.Lanes); err != nil {
		return p, nil, nil, ErrMalformedPasswordHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformedPasswordHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, ErrMalformedPasswordHash
	}
	p.SaltBytes = uint32(len(salt))
	p.KeyBytes = uint32(len(key))

	return p, salt, key, nil
}
