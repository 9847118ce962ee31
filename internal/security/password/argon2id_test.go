package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	phc, err := Hash(Default, "s3cret-pass")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(phc, "$argon2id$v=19$"))

	require.True(t, Verify("s3cret-pass", phc))
	require.False(t, Verify("otra-cosa", phc))
}

func TestHashEmptyPassword(t *testing.T) {
	_, err := Hash(Default, "")
	require.Error(t, err)
}

func TestVerifyMalformedPHC(t *testing.T) {
	require.False(t, Verify("x", "no-es-phc"))
	require.False(t, Verify("x", "$argon2i$v=19$m=64,t=1,p=1$abc$def"))
	require.False(t, Verify("x", "$argon2id$v=19$m=64,t=1,p=1$!!$!!"))
}

func TestHashesAreSalted(t *testing.T) {
	a, err := Hash(Default, "mismo")
	require.NoError(t, err)
	b, err := Hash(Default, "mismo")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.True(t, Verify("mismo", a))
	require.True(t, Verify("mismo", b))
}
