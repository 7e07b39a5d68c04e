package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const userKey = "recap.user"

var errUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the user id behind a request.
type Authenticator interface {
	UserID(r *http.Request) (string, error)
}

// JWTAuth accepts HS256 bearer tokens and uses the subject as the user id.
type JWTAuth struct {
	Secret []byte
}

func (a JWTAuth) UserID(r *http.Request) (string, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		return "", errUnauthenticated
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method " + t.Method.Alg())
		}
		return a.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", errUnauthenticated
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errUnauthenticated
	}
	return claims.Subject, nil
}

// HeaderAuth trusts a header set by a fronting proxy.
type HeaderAuth struct {
	Header string
}

func (a HeaderAuth) UserID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(a.Header))
	if id == "" {
		return "", errUnauthenticated
	}
	return id, nil
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (s *Server) authenticate(c *gin.Context) {
	id, err := s.auth.UserID(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return
	}
	c.Set(userKey, id)
	c.Next()
}

func userID(c *gin.Context) string {
	return c.GetString(userKey)
}
