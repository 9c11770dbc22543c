package utils // package utils provides helpers for token creation and password hashing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Token verification failures.  Every specific error wraps ErrToken so that
// callers which must not reveal the exact cause can test for ErrToken alone.
var (
	ErrToken          = errors.New("token rejected")
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrToken)
	ErrTokenSignature = fmt.Errorf("%w: bad signature", ErrToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrToken)
	ErrTokenInvalid   = fmt.Errorf("%w: invalid claims", ErrToken)
)

// reserved claims are always set by Issue and cannot be supplied as extras.
var reserved = map[string]bool{"sub": true, "iat": true, "exp": true, "nbf": true}

// AccessToken represents a signed JWT along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the verified content of a token.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any // every non-registered claim, e.g. "email"
}

// Email returns the denormalized email claim, if present.
func (c *Claims) Email() string {
	s, _ := c.Extra["email"].(string)
	return s
}

// TokenService issues and verifies HS256 tokens with a process-wide secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewTokenService builds a TokenService.  The secret is copied; rotating it
// means building a new service, which invalidates every outstanding token.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenService{
		secret: key,
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

// TTL reports the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue builds and signs a token for userID.  The extra claims are embedded
// as-is except for the registered sub/iat/exp/nbf names, which Issue owns.
func (s *TokenService) Issue(userID string, extra map[string]any) (AccessToken, error) {
	if userID == "" {
		return AccessToken{}, errors.New("issue token: empty user id")
	}
	now := time.Now().UTC()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{}
	for k, v := range extra {
		if !reserved[k] {
			claims[k] = v
		}
	}
	claims["sub"] = userID
	claims["iat"] = now.Unix()
	claims["exp"] = exp.Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, Exp: time.Unix(exp.Unix(), 0).UTC()}, nil
}

// Verify parses raw, checks signature, algorithm and expiry, and returns the
// claims.  Failures are reported as one of the ErrToken* values.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	mc := jwt.MapClaims{}
	tok, err := s.parser.ParseWithClaims(raw, mc, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrTokenInvalid
	}
	out := &Claims{UserID: sub, Extra: map[string]any{}}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.UTC()
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.UTC()
	}
	for k, v := range mc {
		if !reserved[k] {
			out.Extra[k] = v
		}
	}
	return out, nil
}

// classify maps jwt parser errors onto the package's sentinel errors.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
