// Package auth checks the credentials sent with AUTH_DETAILS.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Verifier decides whether a username and password pair may log in
type Verifier interface {
	Verify(ctx context.Context, user, pass string) (bool, error)
}

// Func adapts a plain function to a Verifier
type Func func(ctx context.Context, user, pass string) (bool, error)

func (f Func) Verify(ctx context.Context, user, pass string) (bool, error) {
	return f(ctx, user, pass)
}

// StaticVerifier checks passwords against a fixed map of bcrypt hashes
type StaticVerifier struct {
	hashes map[string][]byte
}

// NewStatic creates a verifier from username to bcrypt hash pairs
func NewStatic(users map[string]string) *StaticVerifier {
	hashes := make(map[string][]byte, len(users))
	for user, hash := range users {
		hashes[user] = []byte(hash)
	}
	return &StaticVerifier{hashes: hashes}
}

func (v *StaticVerifier) Verify(_ context.Context, user, pass string) (bool, error) {
	hash, ok := v.hashes[user]
	if !ok {
		return false, nil
	}
	return checkHash(hash, pass)
}

// HashPassword returns the bcrypt hash stored for a password
func HashPassword(pass string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkHash(hash []byte, pass string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(pass))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	}
	return false, err
}
