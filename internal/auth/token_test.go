package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueThenVerify(t *testing.T) {
	m := NewTokenManager("super-secret", "wayfarer-planner")

	token, err := m.IssueToken(context.Background(), "ops")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestTokenManager_VerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", "wayfarer-planner")
	verifier := NewTokenManager("secret-b", "wayfarer-planner")

	token, err := issuer.IssueToken(context.Background(), "ops")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(context.Background(), token)
	assert.Error(t, err)
}

func TestTokenManager_EmptySecretAlwaysFails(t *testing.T) {
	m := NewTokenManager("", "wayfarer-planner")

	_, err := m.IssueToken(context.Background(), "ops")
	assert.Error(t, err)

	_, err = m.VerifyToken(context.Background(), "anything")
	assert.Error(t, err)
}
