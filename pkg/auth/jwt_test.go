package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicware/clinic-api/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "clinic-api")
	profileID := uuid.New()
	user := &model.User{
		Base: model.Base{ID: uuid.New()},
		Role: model.RolePatient,
	}

	token, expiresAt, err := svc.GenerateAccessToken(user, &profileID)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, model.RolePatient, claims.Role)
	require.NotNil(t, claims.ProfileID)
	assert.Equal(t, profileID, *claims.ProfileID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Hour, "clinic-api")
	verifier := NewJWTService("secret-b", time.Hour, "clinic-api")

	token, _, err := issuer.GenerateAccessToken(&model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleAdmin}, nil)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute, "clinic-api")

	token, _, err := svc.GenerateAccessToken(&model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleAdmin}, nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "clinic-api")
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestCallerFromClaims(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "clinic-api")

	t.Run("doctor claims map to DoctorID", func(t *testing.T) {
		doctorID := uuid.New()
		user := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleDoctor}
		token, _, err := svc.GenerateAccessToken(user, &doctorID)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		caller, err := CallerFromClaims(claims)
		require.NoError(t, err)

		assert.Equal(t, user.ID, caller.UserID)
		assert.True(t, caller.OwnsDoctor(doctorID))
		assert.Nil(t, caller.PatientID)
	})

	t.Run("patient claims map to PatientID", func(t *testing.T) {
		patientID := uuid.New()
		user := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RolePatient}
		token, _, err := svc.GenerateAccessToken(user, &patientID)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		caller, err := CallerFromClaims(claims)
		require.NoError(t, err)

		assert.True(t, caller.OwnsPatient(patientID))
		assert.Nil(t, caller.DoctorID)
	})

	t.Run("admin claims carry no profile", func(t *testing.T) {
		user := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleAdmin}
		token, _, err := svc.GenerateAccessToken(user, nil)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		caller, err := CallerFromClaims(claims)
		require.NoError(t, err)

		assert.True(t, caller.IsAdmin())
		assert.Nil(t, caller.DoctorID)
		assert.Nil(t, caller.PatientID)
	})
}
