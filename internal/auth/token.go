package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated covers every verification failure except expiry:
	// missing or malformed tokens, bad signatures, wrong algorithm, wrong
	// issuer or audience. Callers never learn which gate failed.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTokenExpired is reported only for tokens whose signature verified
	// but whose validity window has passed, so clients can refresh instead
	// of re-authenticating.
	ErrTokenExpired = errors.New("token expired")
)

// Config holds the shared-secret signing setup for issue and verify.
type Config struct {
	Secret    string
	Algorithm string
	Issuer    string
	Audience  string
}

// Identity is the verified caller extracted from a valid token.
type Identity struct {
	Subject   string
	ClientID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// Authority issues and verifies bearer tokens under one symmetric secret.
// It holds no mutable state and is safe for concurrent use.
type Authority struct {
	secret   []byte
	method   jwt.SigningMethod
	issuer   string
	audience string
}

// NewAuthority validates the signing configuration once at startup.
func NewAuthority(cfg Config) (*Authority, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("JWT_SECRET_KEY is not configured")
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(strings.TrimSpace(cfg.Algorithm)) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q (expected HS256|HS384|HS512)", cfg.Algorithm)
	}

	return &Authority{
		secret:   []byte(secret),
		method:   method,
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
	}, nil
}

// Issue mints a signed token for subject valid for ttl from now.
func (a *Authority) Issue(subject, clientID string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("validity duration must be positive")
	}
	if clientID == "" {
		clientID = subject
	}

	now := time.Now().UTC()
	c := claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(a.method, c).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer, audience and validity window,
// in that order, and returns the embedded identity on success.
func (a *Authority) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{a.method.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// jwt/v5 joins all claim failures into one error. Issuer and
		// audience gates come before the validity window, so a token that
		// fails either must read as unauthenticated even when it is also
		// expired.
		if errors.Is(err, jwt.ErrTokenInvalidIssuer) || errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return Identity{}, ErrUnauthenticated
		}
		// Expiry is only reported after the signature verified, so it is
		// safe to surface it as a distinct condition.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrUnauthenticated
	}

	if strings.TrimSpace(c.Subject) == "" {
		return Identity{}, ErrUnauthenticated
	}

	id := Identity{
		Subject:  c.Subject,
		ClientID: c.ClientID,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, nil
}
