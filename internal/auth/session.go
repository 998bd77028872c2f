// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSubject is the subject of every admin token.
const AdminSubject = "admin"

// ErrNotAdmin is returned for a valid token that does not carry admin rights.
var ErrNotAdmin = errors.New("token is not an admin token")

// Signer issues and checks EdDSA-signed admin tokens. Keys are generated per
// process, so every token dies with a restart.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	ttl  time.Duration
	now  func() time.Time
}

// NewSigner generates a fresh key pair. ttl <= 0 means tokens never expire.
func NewSigner(ttl time.Duration) (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Signer{priv: priv, pub: pub, ttl: ttl, now: time.Now}, nil
}

// CreateJWT signs a token for subject.
func (s *Signer) CreateJWT(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": s.now().Unix(),
	}
	if s.ttl > 0 {
		claims["exp"] = s.now().Add(s.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.priv)
}

// AuthenticateJWT verifies a token and returns its subject.
func (s *Signer) AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.pub, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	sub, err := t.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return sub, nil
}

// AuthenticateAdmin succeeds only for admin tokens.
func (s *Signer) AuthenticateAdmin(tokenString string) error {
	sub, err := s.AuthenticateJWT(tokenString)
	if err != nil {
		return err
	}
	if sub != AdminSubject {
		return ErrNotAdmin
	}
	return nil
}
