package nonce

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	issuer, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	tok, err := issuer.Issue("convert-pages", "editor")
	require.NoError(t, err)
	assert.Equal(t, "convert-pages", tok.Action)
	assert.Equal(t, now.Add(time.Hour), tok.Expires)

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, issuer.Verify(tok.Value, "convert-pages", "editor"))
	})

	t.Run("WrongAction", func(t *testing.T) {
		assert.ErrorIs(t, issuer.Verify(tok.Value, "quick-add-venue", "editor"), ErrInvalid)
	})

	t.Run("WrongUser", func(t *testing.T) {
		assert.ErrorIs(t, issuer.Verify(tok.Value, "convert-pages", "someone-else"), ErrInvalid)
	})

	t.Run("OtherSecret", func(t *testing.T) {
		other, err := NewIssuer("different", time.Hour)
		require.NoError(t, err)
		assert.ErrorIs(t, other.Verify(tok.Value, "convert-pages", "editor"), ErrInvalid)
	})

	t.Run("Garbage", func(t *testing.T) {
		assert.ErrorIs(t, issuer.Verify("not-a-token", "convert-pages", "editor"), ErrInvalid)
	})

	t.Run("Expired", func(t *testing.T) {
		later := *issuer
		later.now = func() time.Time { return now.Add(2 * time.Hour) }
		assert.ErrorIs(t, later.Verify(tok.Value, "convert-pages", "editor"), ErrInvalid)
	})
}

func TestNewIssuer(t *testing.T) {
	_, err := NewIssuer("", 0)
	assert.Error(t, err)

	issuer, err := NewIssuer("x", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, issuer.ttl)

	_, err = issuer.Issue("", "u")
	assert.Error(t, err)
}

func TestIssuer_DerivedKey(t *testing.T) {
	issuer, err := NewIssuer("shared-secret", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("shared-secret"), issuer.secret)

	tok, err := issuer.Issue("convert-pages", "editor")
	require.NoError(t, err)

	_, err = jwt.Parse(tok.Value, func(*jwt.Token) (any, error) {
		return []byte("shared-secret"), nil
	})
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	again, err := NewIssuer("shared-secret", time.Hour)
	require.NoError(t, err)
	assert.NoError(t, again.Verify(tok.Value, "convert-pages", "editor"))
}
