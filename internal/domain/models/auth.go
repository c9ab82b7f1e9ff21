package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of tokens issued by this service.
// Only the registered claims are used: sub carries the user ID.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}

// Token is the login response body
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
