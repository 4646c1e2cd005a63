package account_test

import (
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MyraLuetke/CISC498-Backend/internal/account"
)

var fastArgon = &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestBcryptHasher(t *testing.T) {
	h := account.BcryptHasher{Cost: bcrypt.MinCost}
	hash, algo, err := h.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt:4", algo)
	assert.True(t, h.Verify(hash, "secret"))
	assert.False(t, h.Verify(hash, "Secret"))
}

func TestArgon2idHasher(t *testing.T) {
	h := account.Argon2idHasher{Params: fastArgon}
	hash, algo, err := h.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, "argon2id", algo)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, h.Verify(hash, "secret"))
	assert.False(t, h.Verify(hash, "other"))
	assert.False(t, h.Verify("garbage", "secret"))
}

func TestAdaptiveHasherVerifiesBothFormats(t *testing.T) {
	bc, _, err := account.BcryptHasher{Cost: bcrypt.MinCost}.Hash("pw")
	require.NoError(t, err)
	ar, _, err := account.Argon2idHasher{Params: fastArgon}.Hash("pw")
	require.NoError(t, err)

	for _, name := range []string{"bcrypt", "argon2id"} {
		h, err := account.NewHasher(name, bcrypt.MinCost)
		require.NoError(t, err)
		assert.True(t, h.Verify(bc, "pw"), name)
		assert.True(t, h.Verify(ar, "pw"), name)
		assert.False(t, h.Verify(bc, "nope"), name)
		assert.False(t, h.Verify("plaintext", "plaintext"), name)
	}
}

func TestNewHasher(t *testing.T) {
	h, err := account.NewHasher("", bcrypt.MinCost)
	require.NoError(t, err)
	_, algo, err := h.Hash("pw")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt:4", algo)

	_, err = account.NewHasher("md5", 0)
	assert.Error(t, err)
}

func TestNeedsRehash(t *testing.T) {
	bc, err := account.NewHasher("bcrypt", 10)
	require.NoError(t, err)
	assert.False(t, bc.NeedsRehash("bcrypt:10"))
	assert.True(t, bc.NeedsRehash("bcrypt:8"))
	assert.True(t, bc.NeedsRehash("argon2id"))

	ar, err := account.NewHasher("argon2id", 10)
	require.NoError(t, err)
	assert.False(t, ar.NeedsRehash("argon2id"))
	assert.True(t, ar.NeedsRehash("bcrypt:10"))
}
