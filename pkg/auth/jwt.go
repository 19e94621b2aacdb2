package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rehablink/physio-api/pkg/errors"
)

// Role identifies which side of the care relationship a token belongs to.
type Role string

const (
	RolePatient         Role = "patient"
	RolePhysiotherapist Role = "physiotherapist"
)

// ActorClaims carries the authenticated actor identity inside a JWT.
type ActorClaims struct {
	ActorID uuid.UUID `json:"actor_id"`
	Role    Role      `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates actor tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokenService(secret string, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// GenerateToken issues a signed token for the given actor.
func (s *TokenService) GenerateToken(actorID uuid.UUID, role Role) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		ActorID: actorID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   actorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Internal(fmt.Errorf("failed to sign token: %w", err))
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its actor claims.
func (s *TokenService) ValidateToken(tokenString string) (*ActorClaims, error) {
	claims := &ActorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.BadRequest("unexpected signing method", nil)
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.BadRequest("invalid token", err)
	}
	if !token.Valid {
		return nil, errors.BadRequest("invalid token", nil)
	}
	return claims, nil
}
