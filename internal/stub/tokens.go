package stub // package stub emulates the LocaTrova backend for local development and tests

import (
	"crypto/rand" // secure random generation for refresh tokens
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and validating signed tokens
	"github.com/labstack/echo/v4"
)

// newAccessToken builds and signs an HS256 JWT carrying the claim set the
// admin client decodes: userId, email, username and the standard exp/iat.
func newAccessToken(secret, userID, email, username string, ttlMin int) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"userId":   userID,
		"email":    email,
		"username": username,
		"exp":      now.Add(time.Duration(ttlMin) * time.Minute).Unix(),
		"iat":      now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// newRefreshToken returns a cryptographically random opaque token.  The stub
// keeps the mapping to its user in memory; there is no rotation.
func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// requireAuth is the stub's Bearer-token middleware.  It validates the HS256
// signature and expiry and stashes the userId claim in the request context.
func requireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return fail(c, http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return fail(c, http.StatusUnauthorized, "invalid or expired token")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return fail(c, http.StatusUnauthorized, "invalid claims")
			}
			c.Set("userId", claims["userId"])
			return next(c)
		}
	}
}
