package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/hostly-api/internal/config"
	"golang.org/x/crypto/argon2"
)

// ErrWeakPassword is returned by Hash when the password fails the minimum
// length policy. Composition rules (digits, case, symbols) are enforced by
// request validation, not here.
var ErrWeakPassword = errors.New("password is too weak")

const (
	minPasswordLen = 8
	saltLen        = 16
	keyLen         = 32
)

// Hasher produces and verifies Argon2id password hashes in the PHC string
// format ($argon2id$v=19$m=...,t=...,p=...$salt$key). The embedded parameters
// make every hash self-describing, so cost upgrades can be rolled out online.
type Hasher struct {
	params config.Argon2Params
}

func NewHasher(params config.Argon2Params) *Hasher {
	return &Hasher{params: params}
}

// Hash derives an Argon2id hash with a fresh random salt. Two calls with the
// same password never produce the same string.
func (h *Hasher) Hash(password string) (string, error) {
	if len([]rune(password)) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrWeakPassword)
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.MemoryKiB, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. The comparison is
// constant-time over the derived key. Malformed input returns false, never
// an error — a garbage hash is just a failed login.
func (h *Hasher) Verify(password, encoded string) bool {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, computed) == 1
}

// NeedsRehash reports whether encoded was produced with parameters other than
// the currently configured ones. Callers rehash on the next successful login.
func (h *Hasher) NeedsRehash(encoded string) bool {
	params, _, _, err := decode(encoded)
	if err != nil {
		return true
	}
	return params != h.params
}

// decode parses a PHC-formatted Argon2id hash into its parameters, salt and key.
func decode(encoded string) (config.Argon2Params, []byte, []byte, error) {
	var zero config.Argon2Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return zero, nil, nil, fmt.Errorf("not an argon2id hash")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return zero, nil, nil, fmt.Errorf("unsupported argon2 version")
	}
	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return zero, nil, nil, fmt.Errorf("malformed argon2 parameters")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return zero, nil, nil, fmt.Errorf("malformed salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return zero, nil, nil, fmt.Errorf("malformed key: %w", err)
	}
	return config.Argon2Params{Time: t, MemoryKiB: m, Threads: p}, salt, key, nil
}
