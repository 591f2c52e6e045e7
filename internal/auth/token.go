package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. The registered subject carries the user id;
// Email travels alongside it for convenience.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and verifies bearer tokens with a symmetric secret.
// Construct it once in main from config and inject it; the secret is never
// read from the environment here.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

// Issue signs an HS256 token for userID that expires after the issuer TTL.
func (i *Issuer) Issue(userID, email string) (string, error) {
	if len(i.Secret) == 0 {
		return "", errors.New("signing secret not configured")
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.Secret)
}

// Verify parses tokenStr, accepting only HS256, and returns its claims.
// Expired or tampered tokens fail.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return i.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
