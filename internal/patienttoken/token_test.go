package patienttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("a test secret that is long enough")

func TestRoundTrip(t *testing.T) {
	now := time.Now()
	raw, err := Issue(secret, "user-1", "jane@example.com", time.Hour, now)
	require.NoError(t, err)

	claims, err := Parse(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseRejects(t *testing.T) {
	now := time.Now()

	expired, err := Issue(secret, "user-1", "jane@example.com", time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)

	forged, err := Issue([]byte("some other secret of enough length"), "user-1", "jane@example.com", time.Hour, now)
	require.NoError(t, err)

	noEmail, err := Issue(secret, "user-1", "", time.Hour, now)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "jane@example.com"}).SignedString(secret)
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Email:            "jane@example.com",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"Expired":  expired,
		"Forged":   forged,
		"NoEmail":  noEmail,
		"NoExpiry": noExpiry,
		"HS512":    otherAlg,
		"Garbage":  "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(secret, raw)
			assert.Error(t, err)
		})
	}
}
