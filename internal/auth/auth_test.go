package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-service/internal/rbac"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	pair, err := m.Issue(userID, "dg@example.com", rbac.RoleGeneralDirector)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshExpiresAt.After(pair.ExpiresAt))

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, rbac.RoleGeneralDirector, claims.Role)

	_, err = m.Verify(pair.AccessToken, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = m.Verify(pair.RefreshToken, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuerA := NewTokenManager("secret-a", time.Hour, time.Hour)
	issuerB := NewTokenManager("secret-b", time.Hour, time.Hour)

	pair, err := issuerA.Issue(uuid.New(), "a@example.com", rbac.RoleEmployee)
	require.NoError(t, err)

	_, err = issuerB.Verify(pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	pair, err := m.Issue(uuid.New(), "a@example.com", rbac.RoleEmployee)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Hour)
	_, err := m.Verify("not-a-jwt", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))
}
