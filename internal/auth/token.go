package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
)

// HMACTokenManager issues and verifies HS256 tokens signed with a shared secret
type HMACTokenManager struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewHMACTokenManager creates a token manager. The secret must not be empty.
func NewHMACTokenManager(secret string, defaultTTL time.Duration, logger *slog.Logger) (*HMACTokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret cannot be empty")
	}
	if defaultTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", defaultTTL)
	}
	return &HMACTokenManager{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// IssueToken signs a token whose sub is the user ID
func (m *HMACTokenManager) IssueToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	now := m.now()

	claims := models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, algorithm, expiry and subject
func (m *HMACTokenManager) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{},
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		// Never log the token itself
		m.logger.Debug("token rejected", "reason", err.Error())
		return nil, domain.ErrUnauthorized
	}

	return subjectClaims(token, m.logger)
}

// Close is a no-op; HMAC verification holds no resources
func (m *HMACTokenManager) Close() error {
	return nil
}

// subjectClaims extracts AccessClaims and requires sub to be a user UUID
func subjectClaims(token *jwt.Token, logger *slog.Logger) (*models.AccessClaims, error) {
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok {
		logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		logger.Debug("token subject is not a user id")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}
