package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,bcryptmax"`
	CaptchaToken string `json:"captchaToken,omitempty"`
}

// RequestMeta describes where a request came from for rate limiting and auditing.
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

// Actor is the authenticated caller performing a mutation.
type Actor struct {
	UserID string
	Email  string
	Role   UserRole
	Meta   RequestMeta
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	User         UserInfo
	AccessToken  string
	RefreshToken string
	CSRFToken    string
	AccessTTL    time.Duration
}

// RefreshResult carries the newly minted access token.
type RefreshResult struct {
	AccessToken string
	AccessTTL   time.Duration
}

// ChangePasswordRequest payload for updating the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,bcryptmax,nefield=CurrentPassword"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

// NewUserInfo projects the public fields of a user.
func NewUserInfo(u *User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
