package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid session")

// User is the identity carried by a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is what a client holds after signing in.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// Claims are the JWT claims of an access token. The token id (jti) is what
// sign-out revokes.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Issue signs a new token for u.
func (t *Tokens) Issue(u User, now time.Time) (*Session, error) {
	exp := now.Add(t.ttl)
	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{AccessToken: signed, ExpiresAt: exp, User: u}, nil
}

// Parse verifies signature and expiry. Every failure is reported as ErrInvalidSession.
func (t *Tokens) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims := &Claims{}
	parsed, err := t.parser.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidSession)
	}
	return claims, nil
}
