package domain

import "time"

// Account is an identity-provider record. The password hash never
// leaves the identity package.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserProfile is the denormalized profile record written to the
// document store at registration time. Downstream services read it;
// from the gateway's point of view it is optional metadata.
type UserProfile struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	CreatedAt   int64  `json:"createdAt"`
}
