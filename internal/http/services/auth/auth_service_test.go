package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	dto "github.com/dropDatabas3/cuentas/internal/http/dto/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
	"github.com/dropDatabas3/cuentas/internal/security/signature"
)

type fixture struct {
	svc      Service
	users    *fakeUsers
	otps     *fakeOTPs
	sessions *fakeSessions
	mailer   *fakeMailer
	signer   *signature.Signer
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pub, priv, err := signature.GenerateKeyPair(2048)
	require.NoError(t, err)
	signer, err := signature.New(pub, priv)
	require.NoError(t, err)

	start := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := &start
	now := func() time.Time { return *clock }

	users := newFakeUsers()
	otps := newFakeOTPs(users, now)
	sessions := newFakeSessions()
	mailer := &fakeMailer{}

	roles := &fakeRoles{def: &repository.Role{
		ID:          "r-default",
		Name:        "user",
		IsDefault:   true,
		Permissions: `{"mobile":{"wallet":{"read":true,"write":true}},"app":{}}`,
	}}

	issuer := jwtx.NewIssuer("cuentas-by-dropdatabas3",
		[]byte("access-secret"), []byte("refresh-secret"),
		15*time.Minute, 24*time.Hour)

	svc := NewService(Deps{
		Users:    users,
		Roles:    roles,
		OTPs:     otps,
		Sessions: sessions,
		Signer:   signer,
		Issuer:   issuer,
		Mailer:   mailer,
		OTPTTL:   3 * time.Minute,
		Now:      now,
	})

	return &fixture{svc: svc, users: users, otps: otps, sessions: sessions,
		mailer: mailer, signer: signer, clock: clock}
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) signUp(t *testing.T, email string) string {
	t.Helper()
	return f.signUpWithPhone(t, email, "+549110001111")
}

func (f *fixture) signUpWithPhone(t *testing.T, email, phone string) string {
	t.Helper()
	resp, err := f.svc.SignUp(context.Background(), dto.SignUpRequest{
		Email: email, Password: "s3cret-pass", Phone: phone,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Signature)
	return resp.Signature
}

// signUpAndVerify deja una cuenta activa lista para sign-in.
func (f *fixture) signUpAndVerify(t *testing.T, email string) {
	t.Helper()
	sig := f.signUp(t, email)
	_, err := f.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{
		Signature: sig, Code: f.mailer.lastCode(),
	}, "10.0.0.1")
	require.NoError(t, err)
}

func appCode(t *testing.T, err error) int {
	t.Helper()
	var appErr *apierr.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestSignUpEmailsCodeAndReturnsSignature(t *testing.T) {
	f := newFixture(t)
	sig := f.signUp(t, "ana@example.com")

	// el código viajó por correo, no dentro de la firma
	require.Len(t, f.mailer.sent, 1)
	plain, err := f.signer.Decrypt(sig)
	require.NoError(t, err)
	require.NotContains(t, plain, "|"+strconv.Itoa(f.mailer.lastCode()))

	u := f.users.byEmail("ana@example.com")
	require.NotNil(t, u)
	require.Equal(t, repository.StatusPending, u.Status)
	require.NotEmpty(t, u.Username)
	require.NotEmpty(t, u.ReferralCode)
}

func TestSignUpRequiresPasswordForType0(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SignUp(context.Background(), dto.SignUpRequest{Email: "ana@example.com"})
	require.Equal(t, apierr.ErrMissingFields.Code, appCode(t, err))
}

func TestSignUpRejectsActiveDuplicate(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")

	_, err := f.svc.SignUp(context.Background(), dto.SignUpRequest{
		Email: "ana@example.com", Password: "otra-pass",
	})
	require.Equal(t, apierr.ErrEmailAlreadyInUse.Code, appCode(t, err))
}

func TestSignUpAllowsPhoneOfPendingAccount(t *testing.T) {
	f := newFixture(t)
	f.signUpWithPhone(t, "ana@example.com", "+549110001111")

	// solo una cuenta ACTIVA reserva el teléfono; una pendiente no
	f.signUpWithPhone(t, "bruno@example.com", "+549110001111")
	require.NotNil(t, f.users.byEmail("bruno@example.com"))
}

func TestSignUpRejectsPhoneOfActiveAccount(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")

	_, err := f.svc.SignUp(context.Background(), dto.SignUpRequest{
		Email: "bruno@example.com", Password: "otra-pass", Phone: "+549110001111",
	})
	require.Equal(t, apierr.ErrEmailAlreadyInUse.Code, appCode(t, err))
}

func TestSignUpReusesPendingAccount(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ana@example.com")
	first := f.users.byEmail("ana@example.com").ID

	// segundo intento antes de verificar: misma fila, sin duplicado
	f.advance(5 * time.Minute)
	f.signUp(t, "ana@example.com")
	require.Equal(t, first, f.users.byEmail("ana@example.com").ID)
	require.Equal(t, repository.StatusPending, f.users.byEmail("ana@example.com").Status)
}

func TestVerifyOTPActivatesAndMintsTokens(t *testing.T) {
	f := newFixture(t)
	sig := f.signUp(t, "ana@example.com")
	code := f.mailer.lastCode()

	res, err := f.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{Signature: sig, Code: code}, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, repository.StatusActive, f.users.byEmail("ana@example.com").Status)

	// verify-otp es el único camino OTP→credenciales: par completo de
	// tokens más la sesión de refresh persistida para ese origen
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.NotEmpty(t, f.sessions.rows)
	sess, err := f.sessions.GetByToken(context.Background(), res.RefreshToken, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, f.users.byEmail("ana@example.com").ID, sess.UserID)

	// en el flujo de verificación no viaja ninguna firma extra
	require.Empty(t, res.Signature)

	// un solo uso: el mismo código ya no existe
	_, err = f.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{Signature: sig, Code: code}, "10.0.0.1")
	require.Equal(t, apierr.ErrInvalidOTP.Code, appCode(t, err))
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newFixture(t)
	sig := f.signUp(t, "ana@example.com")

	_, err := f.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{Signature: sig, Code: 111111}, "ip")
	require.Equal(t, apierr.ErrInvalidOTP.Code, appCode(t, err))
	require.Equal(t, repository.StatusPending, f.users.byEmail("ana@example.com").Status)
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newFixture(t)
	sig := f.signUp(t, "ana@example.com")
	code := f.mailer.lastCode()

	f.advance(3*time.Minute + time.Second)
	_, err := f.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{Signature: sig, Code: code}, "ip")
	require.Equal(t, apierr.ErrOTPExpired.Code, appCode(t, err))
	// no se consumió: la cuenta sigue pendiente
	require.Equal(t, repository.StatusPending, f.users.byEmail("ana@example.com").Status)
}

func TestVerifyOTPGarbageSignature(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyOTP(context.Background(), dto.VerifyOTPRequest{Signature: "AAAA", Code: 123456}, "ip")
	require.Equal(t, apierr.ErrInvalidSignature.Code, appCode(t, err))
}

func TestSignInHappyPathAfterPIN(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")
	ctx := context.Background()

	// primer sign-in: falta PIN
	res, err := f.svc.SignIn(ctx, dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, res.PINRequired)
	require.NotEmpty(t, res.Signature)

	// configurar PIN con esa firma
	tokens, already, err := f.svc.SetupPIN(ctx, dto.SetupPINRequest{Signature: res.Signature, PIN: 123456}, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, already)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "ana@example.com", tokens.Data.Email)

	// segundo sign-in: tokens directos
	res, err = f.svc.SignIn(ctx, dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, res.PINRequired)
	require.NotNil(t, res.Tokens)
}

func TestSetupPINDoesNotOverwrite(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "ip")
	require.NoError(t, err)
	_, _, err = f.svc.SetupPIN(ctx, dto.SetupPINRequest{Signature: res.Signature, PIN: 111111}, "ip")
	require.NoError(t, err)

	// segundo setup con otro PIN: responde tokens pero no pisa el PIN
	_, already, err := f.svc.SetupPIN(ctx, dto.SetupPINRequest{Signature: res.Signature, PIN: 222222}, "ip")
	require.NoError(t, err)
	require.True(t, already)
	require.Equal(t, 111111, *f.users.byEmail("ana@example.com").PIN)
}

func TestSignInWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")

	_, err := f.svc.SignIn(context.Background(),
		dto.SignInRequest{Email: "ana@example.com", Password: "incorrecta"}, "ip")
	require.Equal(t, apierr.ErrInvalidCredentials.Code, appCode(t, err))
}

func TestSignInPendingAccountBlocked(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ana@example.com")

	_, err := f.svc.SignIn(context.Background(),
		dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "ip")
	require.Equal(t, apierr.ErrAccountNotVerified.Code, appCode(t, err))
}

func TestForgotAndResetPasswordFlow(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")
	ctx := context.Background()

	// forgot: nuevo challenge con código embebido en la firma
	forgot, err := f.svc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "ana@example.com"})
	require.NoError(t, err)
	code := f.mailer.lastCode()

	// código equivocado no pasa
	_, err = f.svc.VerifyOTP(ctx, dto.VerifyOTPRequest{Signature: forgot.Signature, Code: code + 1}, "ip")
	require.Equal(t, apierr.ErrInvalidOTP.Code, appCode(t, err))

	// código correcto: tokens más la firma para el cambio de contraseña
	fresh, err := f.svc.VerifyOTP(ctx, dto.VerifyOTPRequest{Signature: forgot.Signature, Code: code}, "ip")
	require.NoError(t, err)
	require.NotEmpty(t, fresh.AccessToken)
	require.NotEmpty(t, fresh.Signature)

	// reset con la firma fresca
	tokens, err := f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{
		Signature: fresh.Signature, Password: "nueva-pass-123",
	}, "ip")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	// la contraseña vieja dejó de servir
	_, err = f.svc.SignIn(ctx, dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "ip")
	require.Equal(t, apierr.ErrInvalidCredentials.Code, appCode(t, err))
}

func TestResetPasswordTooShort(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResetPassword(context.Background(),
		dto.ResetPasswordRequest{Signature: "x", Password: "corta"}, "ip")
	require.Equal(t, apierr.ErrInvalidFormat.Code, appCode(t, err))
}

func TestResendOTPCooldown(t *testing.T) {
	f := newFixture(t)
	sig := f.signUp(t, "ana@example.com")
	ctx := context.Background()

	// dentro del TTL: rechazado con el tiempo restante
	_, err := f.svc.ResendOTP(ctx, dto.ResendOTPRequest{Signature: sig})
	require.Equal(t, apierr.ErrResendTooSoon.Code, appCode(t, err))

	// pasado el TTL: nuevo código
	f.advance(3*time.Minute + time.Second)
	resp, err := f.svc.ResendOTP(ctx, dto.ResendOTPRequest{Signature: sig})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Signature)
	require.Len(t, f.mailer.sent, 2)

	// el nuevo código verifica (la firma de resend trae el challenge completo)
	_, err = f.svc.VerifyOTP(ctx, dto.VerifyOTPRequest{Signature: resp.Signature, Code: f.mailer.lastCode()}, "ip")
	require.NoError(t, err)
	require.Equal(t, repository.StatusActive, f.users.byEmail("ana@example.com").Status)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "10.0.0.1")
	require.NoError(t, err)
	tokens, _, err := f.svc.SetupPIN(ctx, dto.SetupPINRequest{Signature: res.Signature, PIN: 123456}, "10.0.0.1")
	require.NoError(t, err)

	// refresh desde el mismo origen
	acc, err := f.svc.Refresh(ctx, dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}, "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, acc.AccessToken)

	// otro origen no ve la sesión
	_, err = f.svc.Refresh(ctx, dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}, "10.9.9.9")
	require.Equal(t, apierr.ErrTokenInvalid.Code, appCode(t, err))

	// logout idempotente
	require.NoError(t, f.svc.Logout(ctx, dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}, "10.0.0.1"))
	require.NoError(t, f.svc.Logout(ctx, dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}, "10.0.0.1"))

	// la sesión murió con el logout
	_, err = f.svc.Refresh(ctx, dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}, "10.0.0.1")
	require.Equal(t, apierr.ErrTokenInvalid.Code, appCode(t, err))
}

func TestRefreshFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")
	ctx := context.Background()
	userID := f.users.byEmail("ana@example.com").ID

	// token ausente del store
	_, err := f.svc.Refresh(ctx, dto.RefreshTokenRequest{RefreshToken: "no-existe"}, "10.0.0.1")
	missCode := appCode(t, err)

	// token presente en el store pero con firma inválida
	require.NoError(t, f.sessions.Upsert(ctx, userID, "forjado", "10.0.0.1"))
	_, err = f.svc.Refresh(ctx, dto.RefreshTokenRequest{RefreshToken: "forjado"}, "10.0.0.1")
	forgedCode := appCode(t, err)

	// mismo error opaco en ambos casos: no se filtra cuál chequeo falló
	require.Equal(t, apierr.ErrTokenInvalid.Code, missCode)
	require.Equal(t, missCode, forgedCode)
}

func TestNewLoginReplacesSession(t *testing.T) {
	f := newFixture(t)
	f.signUpAndVerify(t, "ana@example.com")
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "10.0.0.1")
	require.NoError(t, err)
	first, _, err := f.svc.SetupPIN(ctx, dto.SetupPINRequest{Signature: res.Signature, PIN: 123456}, "10.0.0.1")
	require.NoError(t, err)

	// login nuevo desde otra IP pisa la sesión (una fila por usuario)
	f.advance(time.Second)
	res2, err := f.svc.SignIn(ctx, dto.SignInRequest{Email: "ana@example.com", Password: "s3cret-pass"}, "10.0.0.2")
	require.NoError(t, err)
	require.NotNil(t, res2.Tokens)

	_, err = f.svc.Refresh(ctx, dto.RefreshTokenRequest{RefreshToken: first.RefreshToken}, "10.0.0.1")
	require.Equal(t, apierr.ErrTokenInvalid.Code, appCode(t, err))
}

func TestSignUpFailsWhenMailerDown(t *testing.T) {
	f := newFixture(t)
	f.mailer.fail = errors.New("smtp down")

	_, err := f.svc.SignUp(context.Background(), dto.SignUpRequest{
		Email: "ana@example.com", Password: "s3cret-pass",
	})
	require.Equal(t, apierr.ErrServiceUnavailable.Code, appCode(t, err))
}
