// Package auth issues and verifies the bearer JWTs the HTTP API uses for
// authentication/RBAC (§6) behind a plain username/password login, grounded
// on root's user_auth.go UserDB and auth_handlers.go login/register handlers
// rather than an OAuth2/OIDC flow, since forensic investigators are internal
// users, not third-party OAuth identities.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a plaintext password, grounded on its
// user_auth.go CreateUser (bcrypt.GenerateFromPassword, bcrypt.DefaultCost).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash, grounded on
// user_auth.go's VerifyPassword.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
