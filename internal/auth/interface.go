package auth

import (
	"time"

	"chatprojects/internal/domain/models"
)

// TokenVerifier validates bearer tokens.
// This abstraction keeps the middleware agnostic to how tokens are signed.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is malformed, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	// IssueToken signs a token for subject. A zero ttl means the configured default.
	IssueToken(subject string, ttl time.Duration) (string, error)
}

// PasswordHasher hashes and checks passwords. Plaintext is never stored.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}
