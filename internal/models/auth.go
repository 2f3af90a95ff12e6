package models

import "github.com/golang-jwt/jwt/v5"

// SignupRequest registers a new account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// SignupResponse confirms account creation.
type SignupResponse struct {
	Message string   `json:"msg"`
	User    UserInfo `json:"user"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse returns an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// JWTClaims is the access token payload. The subject holds the user id.
type JWTClaims struct {
	jwt.RegisteredClaims
}
