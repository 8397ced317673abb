package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tastefeed/server/internal/models"
)

const actorKey = "actor"

// Actor is the authenticated caller of a request
type Actor struct {
	ID   int64
	Role string
}

// IsAdmin reports whether the actor may see moderation views
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Claims are the access token claims. Subject holds the user id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 access tokens issued by the identity service
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue signs a token for userID. The server only verifies tokens; Issue
// exists for the seeder, local development and tests.
func (a *Authenticator) Issue(userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses and validates a token and returns its actor
func (a *Authenticator) Verify(token string) (Actor, error) {
	if len(a.secret) == 0 {
		return Actor{}, errors.New("token verification is not configured")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Actor{}, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Actor{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}
	return Actor{ID: id, Role: role}, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// requireAuth rejects requests without a valid access token
func (r *Router) requireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		unauthorized(c, "missing access token")
		return
	}
	actor, err := r.auth.Verify(token)
	if err != nil {
		unauthorized(c, "invalid access token")
		return
	}
	c.Set(actorKey, actor)
	c.Next()
}

// optionalAuth resolves the actor when a valid token is present and
// otherwise serves the request anonymously
func (r *Router) optionalAuth(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if actor, err := r.auth.Verify(token); err == nil {
			c.Set(actorKey, actor)
		}
	}
	c.Next()
}

// actorFrom returns the request's actor; the zero Actor means anonymous
func actorFrom(c *gin.Context) Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return Actor{}
	}
	actor, _ := v.(Actor)
	return actor
}
