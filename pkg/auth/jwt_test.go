package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "physio-api", time.Hour)
	actorID := uuid.New()

	token, err := svc.GenerateToken(actorID, RolePhysiotherapist)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actorID, claims.ActorID)
	assert.Equal(t, RolePhysiotherapist, claims.Role)
	assert.Equal(t, "physio-api", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewTokenService("test-secret", "physio-api", time.Hour)
	other := NewTokenService("other-secret", "physio-api", time.Hour)

	token, err := svc.GenerateToken(uuid.New(), RolePatient)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret", "physio-api", -time.Minute)

	token, err := svc.GenerateToken(uuid.New(), RolePatient)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", "physio-api", time.Hour)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
