package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicware/clinic-api/internal/model"
)

// Claims carries the caller identity inside the access token. ProfileID is
// the doctor or patient record linked to the user, when the role has one.
type Claims struct {
	jwt.RegisteredClaims
	Role      model.Role `json:"role"`
	ProfileID *uuid.UUID `json:"profile_id,omitempty"`
}

type JWTService interface {
	GenerateAccessToken(user *model.User, profileID *uuid.UUID) (string, time.Time, error)
	ValidateToken(token string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

func NewJWTService(secret string, expiry time.Duration, issuer string) JWTService {
	return &jwtService{secret: []byte(secret), expiry: expiry, issuer: issuer}
}

func (s *jwtService) GenerateAccessToken(user *model.User, profileID *uuid.UUID) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.expiry)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      user.Role,
		ProfileID: profileID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// CallerFromClaims resolves token claims into the request caller.
func CallerFromClaims(claims *Claims) (model.Caller, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Caller{}, fmt.Errorf("invalid subject: %w", err)
	}

	caller := model.Caller{UserID: userID, Role: claims.Role}
	switch claims.Role {
	case model.RoleDoctor:
		caller.DoctorID = claims.ProfileID
	case model.RolePatient:
		caller.PatientID = claims.ProfileID
	}
	return caller, nil
}
