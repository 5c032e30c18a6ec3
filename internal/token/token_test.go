package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc, err := NewService("super-secret")
	require.NoError(t, err)

	tok, err := svc.Issue("alice@x.com")
	require.NoError(t, err)

	claim, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", claim.Email)
	require.NotNil(t, claim.ExpiresAt)
	require.NotNil(t, claim.IssuedAt)
	assert.Equal(t, time.Hour, claim.ExpiresAt.Sub(claim.IssuedAt.Time))
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := NewService("secret", WithClock(clock.now))
	require.NoError(t, err)

	tok, err := svc.Issue("alice@x.com")
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Minute)
	_, err = svc.Verify(tok)
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewService("right-secret")
	require.NoError(t, err)
	verifier, err := NewService("wrong-secret")
	require.NoError(t, err)

	tok, err := issuer.Issue("alice@x.com")
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestInstancesSharingSecretInteroperate(t *testing.T) {
	t.Parallel()

	issuer, err := NewService("shared-secret")
	require.NoError(t, err)
	verifier, err := NewService("shared-secret")
	require.NoError(t, err)

	tok, err := issuer.Issue("alice@x.com")
	require.NoError(t, err)

	claim, err := verifier.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", claim.Email)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	svc, err := NewService("k")
	require.NoError(t, err)

	for _, raw := range []string{"", "not.a.jwt", "abc"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestVerifyRejectsUnsignedAndRawSecret(t *testing.T) {
	t.Parallel()

	svc, err := NewService("secret")
	require.NoError(t, err)
	claims := Claim{
		Email: "mallory@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signing with the configured secret directly is not enough; the key is derived.
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresExpiryAndEmail(t *testing.T) {
	t.Parallel()

	svc, err := NewService("secret")
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claim{Email: "a@x.com"}).SignedString(svc.key)
	require.NoError(t, err)
	_, err = svc.Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noEmail, err := svc.Issue("")
	require.NoError(t, err)
	_, err = svc.Verify(noEmail)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewService("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestWithTTL(t *testing.T) {
	t.Parallel()

	svc, err := NewService("secret", WithTTL(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, svc.TTL())

	svc, err = NewService("secret", WithTTL(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, svc.TTL())
}
