package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/cinevault-be/internal/models"
)

// SessionTTL is the fixed validity window of a session token.
const SessionTTL = 7 * 24 * time.Hour

// SessionClaims is the identity carried inside a session token.
type SessionClaims struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Public projects the claims to the client-visible identity.
func (c SessionClaims) Public() models.PublicUser {
	return models.PublicUser{ID: c.ID, Username: c.Username, Role: c.Role}
}

type tokenClaims struct {
	SessionClaims
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed session JWTs. Tokens are not
// tracked server-side: a token stays valid until it expires, even after
// logout, and rotating the secret invalidates every outstanding token.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret and issuer.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    SessionTTL,
		now:    time.Now,
	}
}

// TTL returns how long issued tokens remain valid.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// Issue signs claims into a token that expires after TTL.
func (t *TokenManager) Issue(claims SessionClaims) (string, error) {
	if claims.ID == "" {
		return "", errors.New("token subject is required")
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		SessionClaims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   claims.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	return token.SignedString(t.secret)
}

// Verify returns the claims of a well-formed, correctly signed, unexpired
// token. Every failure collapses to false.
func (t *TokenManager) Verify(tokenString string) (SessionClaims, bool) {
	if tokenString == "" {
		return SessionClaims{}, false
	}
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return SessionClaims{}, false
	}
	if claims.SessionClaims.ID == "" || claims.Subject != claims.SessionClaims.ID {
		return SessionClaims{}, false
	}
	return claims.SessionClaims, true
}
