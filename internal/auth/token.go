package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chronique-jdr/chronique/internal/config"
)

// Role constants for account privilege levels.
const (
	RolePlayer = "player"
	RoleGM     = "gm"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is a recognised privilege level.
func ValidRole(role string) bool {
	switch role {
	case RolePlayer, RoleGM, RoleAdmin:
		return true
	}
	return false
}

// ErrInvalidToken is returned when a token fails signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	AccountID int64
	Username  string
	Role      string
}

// claims is the JWT claim set carried by Chronique access tokens.
type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HMAC access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer from auth configuration.
//
// Precondition: cfg.Secret must be non-empty and cfg.TokenTTL > 0.
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// Issue signs an access token for the given identity.
//
// Precondition: id.AccountID must be > 0 and id.Role must be valid.
// Postcondition: Returns a signed compact JWT or a non-nil error.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	if id.AccountID <= 0 {
		return "", fmt.Errorf("issuing token: account id must be > 0, got %d", id.AccountID)
	}
	if !ValidRole(id.Role) {
		return "", fmt.Errorf("issuing token: invalid role %q", id.Role)
	}

	now := t.now()
	c := claims{
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   fmt.Sprintf("%d", id.AccountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a compact JWT and returns the caller identity.
//
// Postcondition: Returns ErrInvalidToken for any expired, tampered, or
// malformed token; signature algorithm is pinned to HS256.
func (t *TokenIssuer) Verify(tokenString string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var accountID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &accountID); err != nil || accountID <= 0 {
		return Identity{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	if !ValidRole(c.Role) {
		return Identity{}, fmt.Errorf("%w: bad role %q", ErrInvalidToken, c.Role)
	}

	return Identity{
		AccountID: accountID,
		Username:  c.Username,
		Role:      c.Role,
	}, nil
}
