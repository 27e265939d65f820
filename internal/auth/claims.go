package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload this service expects from the identity provider's
// bearer tokens: a subject identifying the user, nothing else required.
type Claims struct {
	jwt.RegisteredClaims
}

var (
	ErrMissingSubject = errors.New("token has no subject claim")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidToken   = errors.New("token invalid")
)
