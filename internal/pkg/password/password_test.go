package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/hostly-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Low-cost parameters so the test suite stays fast; production values come
// from config defaults.
func testHasher() *Hasher {
	return NewHasher(config.Argon2Params{Time: 1, MemoryKiB: 16 * 1024, Threads: 1})
}

func TestHash_RoundTrip(t *testing.T) {
	h := testHasher()
	encoded, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))
	assert.True(t, h.Verify("correct horse battery", encoded))
	assert.False(t, h.Verify("wrong horse battery", encoded))
}

func TestHash_TooShort(t *testing.T) {
	h := testHasher()
	_, err := h.Hash("short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeakPassword))
}

func TestHash_SaltRandomised(t *testing.T) {
	h := testHasher()
	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same password", a))
	assert.True(t, h.Verify("same password", b))
}

func TestVerify_MalformedHash(t *testing.T) {
	h := testHasher()
	assert.False(t, h.Verify("whatever", ""))
	assert.False(t, h.Verify("whatever", "not a hash"))
	assert.False(t, h.Verify("whatever", "$argon2id$v=19$m=bogus$x$y"))
	assert.False(t, h.Verify("whatever", "$bcrypt$2a$10$abcdefg"))
}

func TestNeedsRehash(t *testing.T) {
	h := testHasher()
	encoded, err := h.Hash("some password")
	require.NoError(t, err)
	assert.False(t, h.NeedsRehash(encoded))

	// Stronger configuration — existing hash should be flagged for upgrade.
	upgraded := NewHasher(config.Argon2Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 4})
	assert.True(t, upgraded.NeedsRehash(encoded))

	// Garbage is always due for a rehash.
	assert.True(t, h.NeedsRehash("junk"))
}
