package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.GreaterOrEqual(t, code, 100000)
		require.LessOrEqual(t, code, 999999)
	}
}

func TestBuildAndParse(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	ch, err := Parse(Build("ana@example.com", at))
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", ch.Email)
	require.True(t, ch.Timestamp.Equal(at))
	require.False(t, ch.HasCode)
}

func TestBuildWithCodeAndParse(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	ch, err := Parse(BuildWithCode("ana@example.com", at, 482913))
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", ch.Email)
	require.True(t, ch.HasCode)
	require.Equal(t, 482913, ch.Code)
}

func TestTimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 8, 31, 7, 0, 0, 0, loc) // 12:00 UTC
	require.Equal(t, "20260831120000", Timestamp(local))
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"solo-email",
		"a@b.com|nofecha",
		"a@b.com|20260831120000|nonum",
		"a@b.com|20260831120000|1|extra",
		"|20260831120000",
	}
	for _, in := range cases {
		_, err := Parse(in)
		require.ErrorIs(t, err, ErrMalformedChallenge, "input %q", in)
	}
}

func TestExpiredBoundary(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	ch := &Challenge{Email: "a@b.com", Timestamp: at}
	ttl := 3 * time.Minute

	// edad == ttl todavía vale; un segundo más ya no
	require.False(t, ch.Expired(at.Add(ttl), ttl))
	require.True(t, ch.Expired(at.Add(ttl+time.Second), ttl))
}

func TestRemaining(t *testing.T) {
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	ch := &Challenge{Email: "a@b.com", Timestamp: at}

	rem := ch.Remaining(at.Add(time.Minute), 3*time.Minute)
	require.Equal(t, 2*time.Minute, rem)
}
