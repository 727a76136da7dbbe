package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret, subject, username string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	ss, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return ss
}

func protected(t *testing.T) (http.Handler, *string) {
	am := NewAuthMiddleware(testSecret)
	var seenSubject string
	h := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenSubject = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seenSubject
}

func TestMissingTokenRejected(t *testing.T) {
	h, _ := protected(t)

	req := httptest.NewRequest("GET", "/api/users/profile", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	h, _ := protected(t)

	req := httptest.NewRequest("GET", "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWrongSecretRejected(t *testing.T) {
	h, _ := protected(t)

	req := httptest.NewRequest("GET", "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "other-secret", "u1", "alice"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestValidHeaderTokenAccepted(t *testing.T) {
	h, seen := protected(t)

	req := httptest.NewRequest("GET", "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "u1", "alice"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", *seen)
}

func TestQueryParamTokenAccepted(t *testing.T) {
	h, seen := protected(t)

	req := httptest.NewRequest("GET", "/ws?token="+mintToken(t, testSecret, "u2", "bob"), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u2", *seen)
}
