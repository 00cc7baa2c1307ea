package auth

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of locally minted tokens.
const DefaultTokenTTL = 15 * time.Minute

// SignerConfig configures a Signer.
type SignerConfig struct {
	// Key is the HS256 secret. Required.
	Key []byte `yaml:"-"`

	Subject  string `yaml:"subject"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`

	// TTL is the token lifetime.
	// Default: DefaultTokenTTL
	TTL time.Duration `yaml:"ttl"`

	// Claims are added to every token. Registered claims set above win.
	Claims map[string]any `yaml:"claims"`
}

// Signer mints HS256 JWTs.
type Signer struct {
	config SignerConfig
	now    func() time.Time
}

// NewSigner creates a Signer.
func NewSigner(config SignerConfig) (*Signer, error) {
	if len(config.Key) == 0 {
		return nil, ErrMissingKey
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTokenTTL
	}
	return &Signer{config: config, now: time.Now}, nil
}

// Token implements Source.
func (s *Signer) Token(_ context.Context) (Token, error) {
	now := s.now()
	exp := now.Add(s.config.TTL)

	claims := jwt.MapClaims{}
	maps.Copy(claims, s.config.Claims)
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(exp)
	if s.config.Subject != "" {
		claims["sub"] = s.config.Subject
	}
	if s.config.Issuer != "" {
		claims["iss"] = s.config.Issuer
	}
	if s.config.Audience != "" {
		claims["aud"] = s.config.Audience
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Key)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Token{Value: signed, Expiry: exp.Truncate(time.Second)}, nil
}

// ExpiryOf reads the exp claim of a JWT without verifying its signature.
// A token without exp returns the zero time.
func ExpiryOf(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

var _ Source = (*Signer)(nil)
