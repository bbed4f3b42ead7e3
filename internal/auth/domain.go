package auth

import "github.com/storefront/storefront/internal/users"

// SignupInput is a validated signup request.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Gender    users.Gender
}

// LoginResult carries the issued bearer token.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
}
