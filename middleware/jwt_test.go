package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-32bytes-padded!!"

func TestParseToken_Valid(t *testing.T) {
	tok, issued, err := GenerateToken(99, testSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	claims, err := ParseToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(99), claims.AccountID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "chargen", claims.Issuer)
}

func TestParseToken_Invalid(t *testing.T) {
	good, _, err := GenerateToken(1, testSecret, time.Hour)
	require.NoError(t, err)
	expired, _, err := GenerateToken(1, testSecret, -time.Second)
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		AccountID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignTok, err := foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]struct{ token, secret string }{
		"wrong secret": {good, "wrong-secret"},
		"expired":      {expired, testSecret},
		"malformed":    {"not.a.jwt", testSecret},
		"empty":        {"", testSecret},
		"issuer":       {foreignTok, testSecret},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.token, tc.secret)
			assert.Error(t, err)
		})
	}
}

func TestGenerateToken_UniqueIDs(t *testing.T) {
	t1, c1, _ := GenerateToken(1, testSecret, time.Hour)
	t2, c2, _ := GenerateToken(1, testSecret, time.Hour)
	assert.NotEqual(t, t1, t2)
	assert.NotEqual(t, c1.ID, c2.ID)
	assert.Equal(t, "session:"+c1.ID, SessionKey(c1.ID))
}
