package api

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"

	"github.com/tendant/simple-theatre/pkg/theatre"
)

// IssueToken signs a bearer token understood by Authenticate. A ttl of zero
// issues a token without expiry.
func IssueToken(ja *jwtauth.JWTAuth, p theatre.Principal, ttl time.Duration) (string, error) {
	if p.UserID == "" {
		return "", fmt.Errorf("user id is required")
	}
	caps := make([]string, 0, len(p.Capabilities))
	for _, c := range p.Capabilities {
		caps = append(caps, string(c))
	}
	claims := map[string]interface{}{
		"sub":  p.UserID,
		"caps": caps,
	}
	jwtauth.SetIssuedNow(claims)
	if ttl > 0 {
		jwtauth.SetExpiryIn(claims, ttl)
	}
	_, signed, err := ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
