package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igocard/backend/internal/models"
	"github.com/igocard/backend/internal/testhelpers"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(testhelpers.NewTestDB(t), "test-secret")
}

func TestRegisterAndValidateToken(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.Register("Taro", "taro@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "Taro", claims.Username)
	assert.NotEmpty(t, claims.UserID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register("Taro", "taro@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register("Other Taro", "taro@example.com", "password456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterEmailHeldBySoftDeletedAccount(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register("Taro", "taro@example.com", "password123")
	require.NoError(t, err)

	// Soft-delete slips past the pre-check (the default scope hides the
	// row) but the unique index still holds the email; the duplicate-key
	// error from the insert must come back as ErrEmailTaken, not raw.
	require.NoError(t, svc.db.Where("email = ?", "taro@example.com").Delete(&models.User{}).Error)

	_, err = svc.Register("Taro II", "taro@example.com", "password456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register("Taro", "taro@example.com", "password123")
	require.NoError(t, err)

	token, err := svc.Login("taro@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Login("taro@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthService(testhelpers.NewTestDB(t), "secret-a")
	verifier := NewAuthService(testhelpers.NewTestDB(t), "secret-b")

	token, err := issuer.Register("Taro", "taro@example.com", "password123")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
