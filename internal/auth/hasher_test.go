package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-user-service/internal/model"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()

	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHasherRoundTrip(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)

	for _, password := range []string{"Abc12345!", "correct horse battery staple", "ümlaut-Pässwort1", " "} {
		secret, err := h.Hash(password)
		require.NoError(t, err)
		require.True(t, h.Verify(password, secret), "password %q should verify", password)
	}
}

func TestHasherRejectsOtherPasswords(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)
	secret, err := h.Hash("Abc12345!")
	require.NoError(t, err)

	require.False(t, h.Verify("Abc12345?", secret))
	require.False(t, h.Verify("abc12345!", secret))
	require.False(t, h.Verify("", secret))
}

func TestHasherSaltsEachSecret(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)
	first, err := h.Hash("Abc12345!")
	require.NoError(t, err)
	second, err := h.Hash("Abc12345!")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, h.Verify("Abc12345!", first))
	require.True(t, h.Verify("Abc12345!", second))
}

func TestHasherCorruptSecretIsMismatch(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)

	require.False(t, h.Verify("Abc12345!", ""))
	require.False(t, h.Verify("Abc12345!", "not-a-bcrypt-hash"))
	require.False(t, h.Verify("Abc12345!", "$2a$04$truncated"))
}

func TestHasherTooLongPassword(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)
	_, err := h.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestNewHasherCost(t *testing.T) {
	t.Parallel()

	_, err := NewHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)

	_, err = NewHasher(1)
	require.Error(t, err)

	h := newTestHasher(t)
	secret, err := h.Hash("Abc12345!")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(secret))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)
}
