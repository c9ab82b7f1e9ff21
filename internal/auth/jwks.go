package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
)

// JWKSVerifier accepts tokens from an external issuer that publishes its
// public keys as a JWKS. The sub claim must still be a local user ID.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWKSVerifier fetches public keys from jwksURL.
// keyfunc v3 caches the keys and refreshes them based on HTTP cache headers.
func NewJWKSVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWKS verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{jwks: jwks, logger: logger}, nil
}

// VerifyToken validates an RS256 or ES256 token against the published keys
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	// Only asymmetric algorithms, so a leaked public key can't be used as an HMAC secret
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("jwks token rejected", "reason", err.Error())
		return nil, domain.ErrUnauthorized
	}

	return subjectClaims(token, v.logger)
}

// Close is a no-op. keyfunc stops its refresh goroutine when the context
// passed to NewJWKSVerifier is cancelled.
func (v *JWKSVerifier) Close() error {
	v.logger.Info("JWKS verifier closed")
	return nil
}

// ChainVerifier tries each verifier in order and accepts the first success
type ChainVerifier struct {
	verifiers []TokenVerifier
}

// NewChainVerifier builds a verifier over the given ones. Nil entries are skipped.
func NewChainVerifier(verifiers ...TokenVerifier) *ChainVerifier {
	chain := &ChainVerifier{}
	for _, v := range verifiers {
		if v != nil {
			chain.verifiers = append(chain.verifiers, v)
		}
	}
	return chain
}

// VerifyToken returns the first successful verification
func (c *ChainVerifier) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	for _, v := range c.verifiers {
		if claims, err := v.VerifyToken(tokenString); err == nil {
			return claims, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

// Close closes every verifier in the chain
func (c *ChainVerifier) Close() error {
	var errs []error
	for _, v := range c.verifiers {
		if err := v.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
