// Package token issues and verifies the bearer tokens the API hands out at
// login. Tokens carry a single "user" claim with the account email and no
// expiry, so a token stays valid until the signing key is rotated.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type ErrorKind int

const (
	Malformed ErrorKind = iota + 1
	SignatureInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case SignatureInvalid:
		return "signature invalid"
	default:
		return "unknown"
	}
}

// AuthError is a failed verification, classified by what went wrong.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s token: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

type Service struct {
	secret []byte
}

func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

// Issue signs a token carrying the caller's email as the "user" claim.
func (s *Service) Issue(email string) (string, error) {
	claims := jwt.MapClaims{
		"user": email,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks the signature and returns the decoded claims. On failure it
// returns an *AuthError distinguishing a malformed token from a bad
// signature.
func (s *Service) Verify(raw string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, &AuthError{Kind: Malformed, Err: err}
		}
		return nil, &AuthError{Kind: SignatureInvalid, Err: err}
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return nil, &AuthError{Kind: SignatureInvalid, Err: errors.New("cannot parse claims")}
	}

	return claims, nil
}
