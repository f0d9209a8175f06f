package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestSessionTokenRoundTrip(t *testing.T) {
	in := Session{UserID: 42, Email: "ada@example.com", Role: "admin", CustomerID: "cus_42"}
	raw, err := IssueToken(secret, in, time.Hour, time.Now())
	require.NoError(t, err)

	got, err := ParseToken(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, in, *got)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := IssueToken(secret, Session{UserID: 1, Email: "a@b.c"}, time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(secret, Session{UserID: 1, Email: "a@b.c"}, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":   "1",
		"email": "a@b.c",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		key []byte
		raw string
	}{
		"wrong secret":   {[]byte("other"), valid},
		"expired":        {secret, expired},
		"unsigned":       {secret, none},
		"garbage":        {secret, "not-a-token"},
		"missing claims": {secret, mustSign(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.key, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func mustSign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return raw
}
