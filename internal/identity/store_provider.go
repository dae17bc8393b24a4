package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/api-gateway/internal/domain"
	"github.com/spec-kit/api-gateway/internal/store"
)

const (
	accountsPath      = "accounts"
	accountEmailsPath = "account_emails"
)

// storeProvider implements Provider on top of the document store.
// Accounts live at accounts/<id>; account_emails/<email> indexes id by
// email. Passwords are stored as bcrypt hashes only.
type storeProvider struct {
	store      store.Store
	bcryptCost int
}

// NewStoreProvider builds a Provider backed by the document store.
func NewStoreProvider(s store.Store, bcryptCost int) Provider {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &storeProvider{store: s, bcryptCost: bcryptCost}
}

type emailIndex struct {
	AccountID string `json:"accountId"`
}

// CreateAccount registers a new account with a fresh ID. The email
// index is claimed atomically first, so concurrent registrations of
// the same email cannot both succeed. The role claim is unset until
// SetCustomClaim is called.
func (p *storeProvider) CreateAccount(ctx context.Context, email, password, fullName string) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	created, err := p.store.PutIfAbsent(ctx, accountEmailsPath+"/"+email, emailIndex{AccountID: account.ID})
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrEmailInUse
	}

	if err := p.store.Put(ctx, accountsPath+"/"+account.ID, account); err != nil {
		_ = p.store.Delete(ctx, accountEmailsPath+"/"+email)
		return nil, err
	}
	return account, nil
}

// GetAccountByEmail resolves the email index, then the account.
func (p *storeProvider) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var idx emailIndex
	if err := p.store.Get(ctx, accountEmailsPath+"/"+email, &idx); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return p.GetAccountByID(ctx, idx.AccountID)
}

// GetAccountByID fetches the account record.
func (p *storeProvider) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	if err := p.store.Get(ctx, accountsPath+"/"+id, &account); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// SetCustomClaim attaches the role to the account record.
func (p *storeProvider) SetCustomClaim(ctx context.Context, id string, role domain.Role) error {
	account, err := p.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	account.Role = role
	return p.store.Put(ctx, accountsPath+"/"+id, account)
}

// VerifyPassword compares the supplied password against the stored
// bcrypt hash. An unknown email reports the same error as a wrong
// password.
func (p *storeProvider) VerifyPassword(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := p.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return account, nil
}
