package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/auth"
	"github.com/spec-kit/api-gateway/internal/domain"
	"github.com/spec-kit/api-gateway/internal/events"
	"github.com/spec-kit/api-gateway/internal/store"
	"github.com/spec-kit/api-gateway/pkg/util"
)

const usersPath = "users"

// IssuedIdentity is the outcome of registration, login and refresh.
type IssuedIdentity struct {
	Token     string
	UserID    string
	Email     string
	FullName  string
	Role      domain.Role
	ExpiresAt time.Time
}

// Service issues tokens against the external identity provider and
// writes the denormalized profile record downstream services read.
type Service struct {
	provider   Provider
	store      store.Store
	codec      *auth.Codec
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewService builds the identity service.
func NewService(provider Provider, s store.Store, codec *auth.Codec, dispatcher events.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		provider:   provider,
		store:      s,
		codec:      codec,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Register creates the account, attaches the role claim, writes the
// profile record and issues a token. A failed profile write is logged
// and swallowed: the account exists and the caller still gets a token.
func (s *Service) Register(ctx context.Context, email, password, fullName string, role domain.Role) (*IssuedIdentity, error) {
	if !role.Valid() {
		return nil, util.NewValidationError("role must be CUSTOMER or SYSTEM_ADMIN", nil)
	}

	account, err := s.provider.CreateAccount(ctx, email, password, fullName)
	if err != nil {
		return nil, util.NewRegistrationFailed(err)
	}
	if err := s.provider.SetCustomClaim(ctx, account.ID, role); err != nil {
		return nil, util.NewRegistrationFailed(err)
	}

	profile := domain.UserProfile{
		UserID:      account.ID,
		Email:       email,
		FullName:    fullName,
		Role:        role,
		PhoneNumber: "",
		Address:     "",
		CreatedAt:   time.Now().UnixMilli(),
	}
	if err := s.store.Put(ctx, usersPath+"/"+account.ID, profile); err != nil {
		s.logger.Warn("failed to save user profile", zap.String("user_id", account.ID), zap.Error(err))
	}

	issued, err := s.issue(account.ID, email, fullName, role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventAccountRegistered, account.ID,
		events.AccountRegisteredPayload{Email: email, Role: role})
	return issued, nil
}

// Login verifies the email/password pair against the provider and
// issues a token carrying the account's current role claim (CUSTOMER
// when unset).
func (s *Service) Login(ctx context.Context, email, password string) (*IssuedIdentity, error) {
	account, err := s.provider.VerifyPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			// Unknown email and wrong password report identically.
			return nil, util.NewUnauthorized(util.CodeAccountNotFound, "invalid email or password")
		}
		return nil, util.MapError(err)
	}

	role := account.Role
	if !role.Valid() {
		role = domain.RoleCustomer
	}

	issued, err := s.issue(account.ID, account.Email, account.FullName, role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventLoginSucceeded, account.ID,
		events.LoginSucceededPayload{Email: account.Email, Role: role})
	return issued, nil
}

// Refresh reissues a token from an old one. Expiry is ignored but the
// signature is still enforced; the account is re-fetched so a role
// change since the original issuance takes effect.
func (s *Service) Refresh(ctx context.Context, oldToken string) (*IssuedIdentity, error) {
	claims, err := s.codec.DecodeIgnoringExpiry(oldToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSignature) {
			return nil, util.NewUnauthorized(util.CodeInvalidSignature, "token signature invalid")
		}
		return nil, util.NewUnauthorized(util.CodeMalformedCredential, "token cannot be parsed")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, util.NewUnauthorized(util.CodeMalformedCredential, "token missing required claims")
	}

	account, err := s.provider.GetAccountByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, util.NewAccountNotFound(claims.UserID)
		}
		return nil, util.MapError(err)
	}

	role := claims.Role
	if account.Role.Valid() {
		role = account.Role
	}

	issued, err := s.issue(account.ID, account.Email, account.FullName, role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTokenRefreshed, account.ID,
		events.TokenRefreshedPayload{Email: account.Email, Role: role, ExpiresAt: issued.ExpiresAt})
	return issued, nil
}

// Validate reports whether a token is currently acceptable.
func (s *Service) Validate(token string) bool {
	return s.codec.Verify(token)
}

func (s *Service) issue(userID, email, fullName string, role domain.Role) (*IssuedIdentity, error) {
	token, expiresAt, err := s.codec.Issue(userID, email, role, 0)
	if err != nil {
		return nil, err
	}
	return &IssuedIdentity{
		Token:     token,
		UserID:    userID,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
