package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return NewIssuer("cuentas-by-dropdatabas3",
		[]byte("access-secret-para-tests"),
		[]byte("refresh-secret-para-tests"),
		15*time.Minute, 24*time.Hour)
}

func testIdentity() Identity {
	return Identity{
		UserID: "u-123",
		Email:  "ana@example.com",
		Name:   "Ana",
		Role:   "user",
		Permissions: PermissionSet{
			"mobile": {{Key: "wallet", Access: true}},
		},
	}
}

func TestIssueAndVerifyAccess(t *testing.T) {
	iss := testIssuer()

	tok, err := iss.Issue(KindAccess, testIdentity())
	require.NoError(t, err)

	claims, err := iss.Verify(KindAccess, tok)
	require.NoError(t, err)
	require.Equal(t, "u-123", claims.UserID)
	require.Equal(t, "ana@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, "cuentas-by-dropdatabas3", claims.Issuer)
	require.True(t, claims.Permissions["mobile"][0].Access)
	require.NotEmpty(t, claims.Date)
	require.NotEmpty(t, claims.Expired)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	iss := testIssuer()

	access, refresh, err := iss.IssuePair(testIdentity())
	require.NoError(t, err)

	// un refresh no valida como access ni al revés
	_, err = iss.Verify(KindAccess, refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = iss.Verify(KindRefresh, access)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredCollapsesToInvalid(t *testing.T) {
	iss := testIssuer()

	tok, err := iss.Issue(KindAccess, testIdentity())
	require.NoError(t, err)

	// un token vencido no se distingue de uno forjado
	iss.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	_, err = iss.Verify(KindAccess, tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	otro := NewIssuer("otro-servicio",
		[]byte("access-secret-para-tests"),
		[]byte("refresh-secret-para-tests"),
		15*time.Minute, 24*time.Hour)
	tok, err := otro.Issue(KindAccess, testIdentity())
	require.NoError(t, err)

	_, err = testIssuer().Verify(KindAccess, tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := testIssuer().Verify(KindAccess, "no.es.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
