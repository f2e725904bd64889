package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/auth/domain"
)

const DefaultTokenTTL = time.Hour

// Config holds the signing secret and the single accepted credential pair.
type Config struct {
	Secret   []byte
	Username string
	Password string
	TTL      time.Duration
	Issuer   string
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenAuthority issues and verifies HS256 tokens for one fixed principal.
// It keeps no per-token state.
type TokenAuthority struct {
	cfg Config
	now func() time.Time
}

type Option func(*TokenAuthority)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(a *TokenAuthority) { a.now = now }
}

func NewTokenAuthority(cfg Config, opts ...Option) (*TokenAuthority, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("admin username and password are required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}

	a := &TokenAuthority{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Issue returns a token when username and password match the configured
// pair. Both comparisons always run so timing does not reveal which failed.
func (a *TokenAuthority) Issue(username, password string) (domain.Token, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.cfg.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.Password))
	if userOK&passOK != 1 {
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	now := a.now()
	exp := now.Add(a.cfg.TTL)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := tok.SignedString(a.cfg.Secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks the signature and time bounds of a token and returns the
// principal it names. Every failure other than an empty token is reported
// as domain.ErrInvalidToken.
func (a *TokenAuthority) Verify(token string) (domain.Principal, error) {
	if token == "" {
		return domain.Principal{}, domain.ErrMissingToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var c claims
	_, err := parser.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.cfg.Secret, nil
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	now := a.now()
	switch {
	case !c.VerifyExpiresAt(now, true):
		return domain.Principal{}, fmt.Errorf("%w: token is expired", domain.ErrInvalidToken)
	case !c.VerifyNotBefore(now, false):
		return domain.Principal{}, fmt.Errorf("%w: token is not valid yet", domain.ErrInvalidToken)
	case a.cfg.Issuer != "" && !c.VerifyIssuer(a.cfg.Issuer, true):
		return domain.Principal{}, fmt.Errorf("%w: unexpected issuer", domain.ErrInvalidToken)
	case subtle.ConstantTimeCompare([]byte(c.Username), []byte(a.cfg.Username)) != 1:
		return domain.Principal{}, fmt.Errorf("%w: unknown principal", domain.ErrInvalidToken)
	}

	return domain.Principal{Username: c.Username}, nil
}
