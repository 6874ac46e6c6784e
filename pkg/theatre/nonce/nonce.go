// Package nonce issues short-lived anti-forgery tokens bound to a user and
// an action name, such as "convert-pages" or "quick-add-venue".
package nonce

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// DefaultTTL is the lifetime of a token when Issuer.TTL is zero.
const DefaultTTL = 12 * time.Hour

// keyInfo separates the nonce signing key from other keys derived from the
// same secret.
const keyInfo = "theatre nonce v1"

// ErrInvalid is returned for expired, forged or mismatched tokens.
var ErrInvalid = errors.New("invalid nonce")

// Token is a signed nonce along with its expiry.
type Token struct {
	Value   string    `json:"nonce"`
	Action  string    `json:"action"`
	Expires time.Time `json:"expires_at"`
}

type claims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies nonces with an HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer; ttl <= 0 selects DefaultTTL. Tokens are
// signed with a key derived from secret, so a nonce never verifies under
// the raw secret even when it is shared with bearer tokens.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("nonce secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &Issuer{secret: key, ttl: ttl, now: time.Now}, nil
}

func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive nonce key: %w", err)
	}
	return key, nil
}

// Issue creates a token for userID to perform action
func (i *Issuer) Issue(action, userID string) (Token, error) {
	if action == "" {
		return Token{}, fmt.Errorf("nonce action is required")
	}
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Action: action, Expires: exp.Truncate(time.Second)}, nil
}

// Verify checks that value was issued by this issuer for userID and action
// and has not expired.
func (i *Issuer) Verify(value, action, userID string) error {
	var c claims
	_, err := jwt.ParseWithClaims(value, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Action != action {
		return fmt.Errorf("%w: issued for %q", ErrInvalid, c.Action)
	}
	if c.Subject != userID {
		return fmt.Errorf("%w: issued for another user", ErrInvalid)
	}
	return nil
}
