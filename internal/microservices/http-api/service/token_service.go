package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"lendinghub/internal/microservices/http-api/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is what the notification endpoints need from an access token.
type Claims struct {
	UserID int64
	Role   models.Role
}

// TokenService verifies access tokens issued by the account service.
// Tokens are HS256 with a numeric "user_id" (or "sub") and a "role" claim.
type TokenService interface {
	ValidateToken(tokenString string) (*Claims, error)
	IssueToken(userID int64, role models.Role, ttl time.Duration) (string, error)
}

type tokenService struct {
	jwtSecret string
}

func NewTokenService(secret string) TokenService {
	return &tokenService{jwtSecret: secret}
}

func (s *tokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, err := userIDFromClaims(mapClaims)
	if err != nil {
		return nil, err
	}
	role, _ := mapClaims["role"].(string)

	return &Claims{UserID: userID, Role: models.Role(role)}, nil
}

// IssueToken signs an access token; used by tooling and tests.
func (s *tokenService) IssueToken(userID int64, role models.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
		"type":    "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func userIDFromClaims(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["user_id"]
	if !ok {
		raw, ok = claims["sub"]
	}
	if !ok {
		return 0, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: malformed user id", ErrInvalidToken)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: malformed user id", ErrInvalidToken)
	}
}
