package core

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidBearerToken is returned by TokenIssuer.Parse for any token whose
// signature, expiry, or claims do not check out.
var ErrInvalidBearerToken = errors.New("invalid bearer token")

// TokenIssuer mints and validates the HS256 bearer tokens handed out after a
// successful two-factor verification. Tokens are stateless: expiry is the
// only bound on their lifetime.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenIssuer(secret []byte, ttl time.Duration, issuer string) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, issuer: issuer}
}

// Issue signs a token carrying the username and an expiry.
func (ti *TokenIssuer) Issue(username string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    ti.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Parse validates the signature and expiry and returns the username.
func (ti *TokenIssuer) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidBearerToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidBearerToken
	}

	return claims.Subject, nil
}
