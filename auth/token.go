package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariebrainware/crm-backend/model"
	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued token stays valid.
const TokenLifetime = 2 * time.Hour

// TokenConfig carries the signing parameters. Now is optional and defaults to
// time.Now.
type TokenConfig struct {
	Key      []byte
	Issuer   string
	Audience string
	Now      func() time.Time
}

// Claims is the payload of a bearer token. Subject holds the user id.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, c.Subject)
	}
	return uint(id), nil
}

// TokenValidator is what the authorization middleware needs from an issuer.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

// TokenIssuer signs and validates HS256 bearer tokens.
type TokenIssuer struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
	metrics  *Metrics
}

func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Key) == 0 {
		return nil, ErrMissingSigningKey
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("token issuer and audience must be set")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		key:      cfg.Key,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      now,
	}, nil
}

// WithMetrics makes Validate count its outcomes.
func (t *TokenIssuer) WithMetrics(m *Metrics) *TokenIssuer {
	t.metrics = m
	return t
}

// Issue mints a token for user. The role name is copied into the claims, so a
// later role change does not affect tokens already handed out.
func (t *TokenIssuer) Issue(user *model.User) (string, error) {
	if user == nil || user.ID == 0 {
		return "", errors.New("cannot issue a token for an unsaved user")
	}

	role := user.Role.Name
	if role == "" {
		role = model.RoleUser
	}

	now := t.now()
	claims := Claims{
		Name: user.Username,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks algorithm, signature, issuer, audience and expiry. Every
// failure wraps ErrInvalidToken.
func (t *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		t.metrics.observeTokenValidation(false)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil {
		t.metrics.observeTokenValidation(false)
		return nil, err
	}

	t.metrics.observeTokenValidation(true)
	return claims, nil
}
