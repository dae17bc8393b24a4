package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/api-gateway/internal/domain"
)

// Codec errors. The filter collapses all of them to 401; the refresh
// path distinguishes signature failures from expiry.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("malformed token")
)

// Codec issues and verifies HS256-signed tokens carrying identity
// claims. The signing secret is injected once at construction and
// never mutated, so concurrent use needs no synchronization.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a codec from the shared secret and default TTL.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Claims describes the token payload. The registered subject carries
// the email, matching the wire shape consumed by downstream services.
type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Email returns the registered subject.
func (c *Claims) Email() string {
	return c.Subject
}

// Issue signs a token for the identity with the given TTL. A
// non-positive ttl falls back to the codec default.
func (c *Codec) Issue(userID, email string, role domain.Role, ttl time.Duration) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, errors.New("role must be a known variant")
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature and expiry and returns the claims. A
// token carrying no expiry claim is rejected, matching Verify.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	return c.parse(tokenStr, false)
}

// DecodeIgnoringExpiry verifies the signature but skips expiry
// validation. Used only by the refresh path; a token whose signature
// cannot be verified is still rejected outright.
func (c *Codec) DecodeIgnoringExpiry(tokenStr string) (*Claims, error) {
	return c.parse(tokenStr, true)
}

// Verify is the filter's single entry point: it never returns an
// error, only false when the token fails decoding for any reason or
// has expired (now >= exp, no clock-skew compensation).
func (c *Codec) Verify(tokenStr string) bool {
	claims, err := c.Decode(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return time.Now().Before(claims.ExpiresAt.Time)
}

func (c *Codec) parse(tokenStr string, ignoreExpiry bool) (*Claims, error) {
	var opts []jwt.ParserOption
	if ignoreExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSignature
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrInvalidSignature):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
