package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserKey     contextKey = "user_id"
	UsernameKey contextKey = "username"
)

// SessionClaims is the shape of the session tokens the auth provider
// issues. The subject is the external user id used everywhere else.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies session tokens. It only validates; issuing
// tokens is the auth provider's job.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// ValidateToken parses and verifies a token, returning the subject and
// username claims.
func (am *AuthMiddleware) ValidateToken(tokenString string) (string, string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", jwt.ErrTokenUnverifiable
	}
	return claims.Subject, claims.Username, nil
}

// Handle rejects requests without a valid token and injects the subject
// into the request context. Websocket clients can't set headers from the
// browser, so a token query param is accepted as a fallback.
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		userID, username, err := am.ValidateToken(tokenString)
		if err != nil || userID == "" {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, userID)
		ctx = context.WithValue(ctx, UsernameKey, username)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID pulls the authenticated subject out of a request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserKey).(string)
	return id
}
