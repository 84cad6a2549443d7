package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/donacije/internal/model"
)

// Claims represents the JWT claims. The subject is the username.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Username returns the authenticated username.
func (c *Claims) Username() string {
	return c.Subject
}

// Provider issues and validates session tokens signed with a shared secret.
type Provider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewProvider creates a Provider whose tokens expire after ttl.
func NewProvider(secret string, ttl time.Duration) *Provider {
	return &Provider{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (p *Provider) TTL() time.Duration {
	return p.ttl
}

// Issue creates a new token for a user with a unique JTI.
func (p *Provider) Issue(username, role string) (string, *Claims, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", nil, fmt.Errorf("generating JTI: %w", err)
	}

	now := p.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Validate parses and verifies a token. Any failure, expiry included, is
// reported as model.ErrAuthentication.
func (p *Provider) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(model.ErrAuthentication, fmt.Errorf("parsing token: %w", err))
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token", model.ErrAuthentication)
	}
	return claims, nil
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
