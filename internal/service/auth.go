package service

import (
	"errors"
	"fmt"
	"time"

	"coin-heist/pkg"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Claims identify the chat user a command is issued for. Roles are the
// user's platform roles; admin commands require one of the configured
// admin roles.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	IssueToken(userID string, roles []string, ttl time.Duration) (string, error)
	ParseToken(token string) (*Claims, error)
}

type authService struct {
	log       pkg.Logger
	jwtSecret string
	now       func() time.Time
}

func NewAuthService(logger pkg.Logger, jwtSecret string) AuthService {
	return &authService{
		log:       logger,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

func (s *authService) IssueToken(userID string, roles []string, ttl time.Duration) (string, error) {
	if s.jwtSecret == "" {
		s.log.Error("auth: empty JWT secret key")
		return "", errors.New("could not generate token: empty secret key")
	}
	if userID == "" {
		return "", errors.New("could not generate token: empty user id")
	}

	claims := Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(s.now().Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		s.log.Error("failed to generate token", zap.String("userID", userID), zap.Error(err))
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	s.log.Info("Token issued", zap.String("userID", userID), zap.Strings("roles", roles))
	return tokenString, nil
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token: missing user id")
	}
	return claims, nil
}

// HasRole reports whether any of roles is in allowed.
func HasRole(roles, allowed []string) bool {
	for _, r := range roles {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}
