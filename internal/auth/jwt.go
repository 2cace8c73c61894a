package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the identity assertion issued by the external identity
// provider. Only three claims matter to the authorization core: the
// external user id (subject), the organization id, and a coarse role
// string. Everything else about the token is opaque.
type Claims struct {
	ExternalUserID string    `json:"sub_external_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	OrgRole        string    `json:"org_role"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// GenerateToken mints an assertion the way the identity provider would.
// Used by tests and the seed script; production tokens arrive pre-signed.
func (s *JWTService) GenerateToken(externalUserID string, orgID uuid.UUID, orgRole string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ExternalUserID: externalUserID,
		OrganizationID: orgID,
		OrgRole:        orgRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "boardstack-identity",
			Subject:   externalUserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ExternalUserID == "" {
		claims.ExternalUserID = claims.Subject
	}

	return claims, nil
}
