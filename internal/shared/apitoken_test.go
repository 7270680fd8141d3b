package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenChecker(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	checker, err := NewTokenChecker(string(hash))
	require.NoError(t, err)
	require.True(t, checker.Enabled())

	require.NoError(t, checker.Check("Bearer s3cret"))
	require.ErrorIs(t, checker.Check("Bearer wrong"), ErrUnauthorized)
	require.ErrorIs(t, checker.Check("s3cret"), ErrUnauthorized)
	require.ErrorIs(t, checker.Check(""), ErrUnauthorized)
}

func TestTokenCheckerDisabled(t *testing.T) {
	checker, err := NewTokenChecker("")
	require.NoError(t, err)
	require.False(t, checker.Enabled())
	require.NoError(t, checker.Check(""))

	_, err = NewTokenChecker("not-a-hash")
	require.Error(t, err)
}
