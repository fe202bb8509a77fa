// Package credential issues and verifies the signed credentials handed to
// artisans when a CraftID is created.
package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the validity period of an issued credential.
const DefaultTTL = 365 * 24 * time.Hour

// Config bundles the configuration required to build a Signer.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// Claims are the claims embedded in a credential.
type Claims struct {
	PublicID string `json:"public_id"`
	jwt.RegisteredClaims
}

// Signer issues and validates HS256 credentials bound to a public id.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a Signer when provided with the required configuration.
func NewSigner(cfg Config) (*Signer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("credential: secret must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &Signer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// Issue signs a credential naming publicID and returns it with its expiry.
func (s *Signer) Issue(publicID string) (string, time.Time, error) {
	if publicID == "" {
		return "", time.Time{}, errors.New("credential: public id is required")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		PublicID: publicID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("credential: sign token: %w", err)
	}

	return signed, expiresAt.Truncate(time.Second), nil
}

// Parse validates a credential and returns its claims. An expired credential
// with a valid signature returns its claims together with an error wrapping
// jwt.ErrTokenExpired.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("credential: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.PublicID != "" {
			return &claims, fmt.Errorf("credential: parse token: %w", err)
		}
		return nil, fmt.Errorf("credential: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("credential: invalid issuer")
	}

	if claims.PublicID == "" {
		return nil, errors.New("credential: missing public id claim")
	}

	return &claims, nil
}
