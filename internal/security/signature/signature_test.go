package signature

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	pub, priv, err := GenerateKeyPair(2048)
	require.NoError(t, err)
	s, err := New(pub, priv)
	require.NoError(t, err)
	return s
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s := newTestSigner(t)

	plain := "ana@example.com|20260831120000|482913"
	enc, err := s.Encrypt(plain)
	require.NoError(t, err)
	require.NotEqual(t, plain, enc)

	got, err := s.Decrypt(enc)
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

func TestDecryptRejectsBadBase64(t *testing.T) {
	s := newTestSigner(t)
	_, err := s.Decrypt("%%%no-base64%%%")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecryptRejectsForeignCiphertext(t *testing.T) {
	s1 := newTestSigner(t)
	s2 := newTestSigner(t)

	enc, err := s1.Encrypt("ana@example.com|20260831120000")
	require.NoError(t, err)

	// cifrado con otra clave: error opaco
	_, err = s2.Decrypt(enc)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	s := newTestSigner(t)
	enc, err := s.Encrypt("ana@example.com|20260831120000")
	require.NoError(t, err)

	tampered := "AAAA" + enc[4:]
	if tampered == enc {
		tampered = "BBBB" + enc[4:]
	}
	_, err = s.Decrypt(tampered)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestGenerateKeyPairRejectsSmallKeys(t *testing.T) {
	_, _, err := GenerateKeyPair(1024)
	require.Error(t, err)
}
