package users

import (
	"context"

	"warbler/models"
	"warbler/repositories"

	"golang.org/x/crypto/bcrypt"
)

// AuthResult is the outcome of Authenticate. A failed result looks the same
// whether the username or the password was wrong.
type AuthResult struct {
	user *models.User
}

// OK reports whether the credentials matched.
func (r AuthResult) OK() bool {
	return r.user != nil
}

// User returns the authenticated user, or nil.
func (r AuthResult) User() *models.User {
	return r.user
}

// Authenticate checks username and password. The error is only set when the
// store itself fails.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	u, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		if repositories.IsNotFound(err) {
			return AuthResult{}, nil
		}
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return AuthResult{}, nil
	}
	return AuthResult{user: u}, nil
}
