package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // sentinel errors for token verification
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// ErrInvalidToken is returned for any token that cannot be trusted:
// malformed, signed with another key or algorithm, or expired.  Callers
// treat every case the same way, as "unauthenticated".
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims is the payload of a session token.  UserID and Role are
// serialized as "id" and "role"; expiry and issue time use the registered
// "exp" and "iat" claims.
type SessionClaims struct {
	UserID uint64 `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionToken represents a signed JWT along with its expiry.  The Token
// field contains the JWT string sent back to the client, which presents it
// in the Authorization header when calling protected endpoints.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT asserting the user's id and
// role.  The token stays valid for ttl and is never revoked server-side.
func NewSessionToken(secret string, userID uint64, role string, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and returns its
// claims.  No issuer or audience checks are performed.  Every failure is
// reported as ErrInvalidToken.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	var claims SessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC-signed tokens are accepted; anything else is rejected
		// before the key is handed out.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return SessionClaims{}, ErrInvalidToken
	}
	return claims, nil
}
