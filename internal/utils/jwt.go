package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/bozor/internal/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when an access token is presented as a refresh token or vice versa.
var ErrWrongTokenType = errors.New("wrong token type")

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	UserID    uint        `json:"id"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a short-lived token carrying the user id and role.
func GenerateAccessToken(secret string, userID uint, role models.Role, ttl time.Duration) (string, error) {
	return generateToken(secret, userID, role, TokenTypeAccess, ttl)
}

// GenerateRefreshToken creates a long-lived token. The role is embedded so that
// refreshed access tokens keep the caller's role.
func GenerateRefreshToken(secret string, userID uint, role models.Role, ttl time.Duration) (string, error) {
	return generateToken(secret, userID, role, TokenTypeRefresh, ttl)
}

func generateToken(secret string, userID uint, role models.Role, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps two tokens issued in the same second distinct
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken validates an access token and returns its claims.
func ParseAccessToken(secret, tokenString string) (*Claims, error) {
	return parseToken(secret, tokenString, TokenTypeAccess)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func ParseRefreshToken(secret, tokenString string) (*Claims, error) {
	return parseToken(secret, tokenString, TokenTypeRefresh)
}

func parseToken(secret, tokenString, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != typ {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
