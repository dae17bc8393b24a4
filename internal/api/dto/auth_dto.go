package dto

import "github.com/spec-kit/api-gateway/internal/domain"

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the token to reissue.
type RefreshRequest struct {
	Token string `json:"token"`
}

// AuthResponse standard response for identity endpoints.
type AuthResponse struct {
	Token    string      `json:"token,omitempty"`
	UserID   string      `json:"userId,omitempty"`
	Email    string      `json:"email,omitempty"`
	FullName string      `json:"fullName,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
	Message  string      `json:"message"`
}
