package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teamhub/collab-service/internal/domain"
	"github.com/teamhub/collab-service/internal/repository"
)

// Claims represents JWT claims. The token is the identity context: every
// authenticated operation derives current_user_id from it.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthService handles authentication and JWT operations
type AuthService struct {
	profileRepo repository.ProfileRepository
	jwtSecret   string
	jwtExpiry   time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(profileRepo repository.ProfileRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
	}
}

// Login generates a JWT token for a known profile
func (s *AuthService) Login(ctx context.Context, userID string) (string, error) {
	// Verify the profile exists before issuing a token
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	claims := &Claims{
		UserID: profile.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
