package identity

import (
	"context"
	"errors"

	"github.com/spec-kit/api-gateway/internal/domain"
)

// Provider errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailInUse      = errors.New("email already registered")
	ErrBadCredentials  = errors.New("invalid credentials")
)

// Provider is the external identity collaborator: account management
// and the role custom-claim. Each call returns a single eventual
// result-or-error within the store's bounded wait; none ever hangs.
type Provider interface {
	CreateAccount(ctx context.Context, email, password, fullName string) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, id string) (*domain.Account, error)
	SetCustomClaim(ctx context.Context, id string, role domain.Role) error
	// VerifyPassword authenticates the email/password pair and returns
	// the account on success, ErrBadCredentials otherwise.
	VerifyPassword(ctx context.Context, email, password string) (*domain.Account, error)
}
