package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jakechorley/volunteer-hub/pkg/db"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	passwordCost = bcrypt.MinCost
}

func newTestSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s, err := NewSigner(testSecret, time.Hour)
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestNewSigner_RejectsShortSecret(t *testing.T) {
	_, err := NewSigner("too-short", time.Hour)
	assert.Error(t, err)

	_, err = NewSigner(testSecret, 0)
	assert.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	token, err := s.Sign(&db.Volunteer{ID: 42, Email: "a@example.com", Role: db.RoleAdmin})
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, now.Add(time.Hour), claims.ExpiresAt.Time.UTC())

	id, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, Identity{VolunteerID: 42, Email: "a@example.com", Role: db.RoleAdmin}, id)
	assert.True(t, id.IsAdmin())
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)
	token, err := s.Sign(&db.Volunteer{ID: 1, Role: db.RoleVolunteer})
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	s := newTestSigner(t, now)
	other, err := NewSigner("fedcba9876543210fedcba9876543210", time.Hour)
	require.NoError(t, err)

	token, err := other.Sign(&db.Volunteer{ID: 1, Role: db.RoleVolunteer})
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestSigner(t, time.Now())
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	s := newTestSigner(t, time.Now())
	_, err := s.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsIdentity_BadSubject(t *testing.T) {
	_, err := (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}).Identity()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrWrongPassword)
	assert.Error(t, CheckPassword("not-a-hash", "x"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("p", MaxPasswordBytes))
	assert.NoError(t, err)

	_, err = HashPassword(strings.Repeat("p", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// 25 three-byte runes is 75 bytes
	_, err = HashPassword(strings.Repeat("€", 25))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{VolunteerID: 7, Role: db.RoleVolunteer})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), id.VolunteerID)
	assert.False(t, id.IsAdmin())
}
