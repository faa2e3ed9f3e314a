package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Nickname string   `json:"nickname"`
	Role     UserRole `json:"role"`
}

// AccessToken is an issued bearer token.
type AccessToken struct {
	Token     string    `json:"access_token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	Nickname string   `json:"nickname"`
	jwt.RegisteredClaims
}
