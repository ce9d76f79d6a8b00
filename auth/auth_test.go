package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hearthside/foyer/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func request(authorization string) *http.Request {
	req, _ := http.NewRequest("GET", "http://localhost/api/metrics/summary", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func TestJWTGate(t *testing.T) {
	gate := auth.NewJWTGate("sesame", "")

	expiring := jwt.MapClaims{"sub": "ops", "exp": time.Now().Add(time.Hour).Unix()}

	// valid token passes
	assert.NoError(t, gate.Authenticate(request("Bearer "+makeToken(t, "sesame", expiring))))

	// missing or malformed header fails
	assert.Error(t, gate.Authenticate(request("")))
	assert.Error(t, gate.Authenticate(request("Basic dXNlcjpwYXNz")))
	assert.Error(t, gate.Authenticate(request("Bearer not-a-token")))

	// wrong secret fails
	assert.Error(t, gate.Authenticate(request("Bearer "+makeToken(t, "wrong", expiring))))

	// expired token fails
	expired := jwt.MapClaims{"sub": "ops", "exp": time.Now().Add(-time.Hour).Unix()}
	assert.Error(t, gate.Authenticate(request("Bearer "+makeToken(t, "sesame", expired))))
}

func TestJWTGateAudience(t *testing.T) {
	gate := auth.NewJWTGate("sesame", "metrics")

	withAud := jwt.MapClaims{"sub": "ops", "aud": "metrics", "exp": time.Now().Add(time.Hour).Unix()}
	assert.NoError(t, gate.Authenticate(request("Bearer "+makeToken(t, "sesame", withAud))))

	wrongAud := jwt.MapClaims{"sub": "ops", "aud": "other", "exp": time.Now().Add(time.Hour).Unix()}
	assert.Error(t, gate.Authenticate(request("Bearer "+makeToken(t, "sesame", wrongAud))))

	noAud := jwt.MapClaims{"sub": "ops", "exp": time.Now().Add(time.Hour).Unix()}
	assert.Error(t, gate.Authenticate(request("Bearer "+makeToken(t, "sesame", noAud))))
}

func TestJWTGateNoSecret(t *testing.T) {
	// a gate with no secret fails closed
	gate := auth.NewJWTGate("", "")
	assert.Error(t, gate.Authenticate(request("Bearer "+makeToken(t, "", jwt.MapClaims{"sub": "ops"}))))
}
