// Package auth provides authentication utilities for JWT token management.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type constants for the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Token expiration durations.
const (
	AccessTokenExpiry  = 15 * time.Minute
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

// Default leeway for token validation.
const DefaultLeeway = 30 * time.Second

// ErrInvalidToken is returned when token validation fails.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when the token has expired.
var ErrExpiredToken = errors.New("token has expired")

// ErrEmptyUserID is returned when userID is empty.
var ErrEmptyUserID = errors.New("userID cannot be empty")

// Claims represents custom JWT claims for the application.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"` // Guild member role (for access tokens)
	Type string `json:"typ"`            // Token type: "access" or "refresh"
}

// JWTService signs and validates HS256 tokens against a small keyring. New
// tokens are always signed with the first key; validation accepts any key in
// the ring, which keeps tokens signed before a secret rotation valid until
// they expire.
type JWTService struct {
	keys   [][]byte
	leeway time.Duration
}

// NewJWTService creates a JWTService with a single signing secret.
func NewJWTService(secret string) *JWTService {
	return NewJWTServiceWithLeeway(secret, DefaultLeeway)
}

// NewJWTServiceWithLeeway creates a single-secret JWTService with custom leeway.
func NewJWTServiceWithLeeway(secret string, leeway time.Duration) *JWTService {
	return &JWTService{
		keys:   [][]byte{[]byte(secret)},
		leeway: leeway,
	}
}

// NewJWTServiceWithRotation creates a JWTService that signs with
// currentSecret but still accepts tokens signed with previousSecret, for
// zero-downtime rotation. An empty previousSecret means no rotation is in
// progress.
func NewJWTServiceWithRotation(currentSecret, previousSecret string) *JWTService {
	return NewJWTServiceWithRotationAndLeeway(currentSecret, previousSecret, DefaultLeeway)
}

// NewJWTServiceWithRotationAndLeeway creates a rotating JWTService with
// custom leeway.
func NewJWTServiceWithRotationAndLeeway(currentSecret, previousSecret string, leeway time.Duration) *JWTService {
	keys := [][]byte{[]byte(currentSecret)}
	if previousSecret != "" {
		keys = append(keys, []byte(previousSecret))
	}
	return &JWTService{keys: keys, leeway: leeway}
}

// GenerateAccessToken creates a new access token (15m expiry) with userID and role.
func (s *JWTService) GenerateAccessToken(userID, role string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	return s.sign(Claims{
		RegisteredClaims: registeredClaims(userID, AccessTokenExpiry),
		Role:             role,
		Type:             TokenTypeAccess,
	})
}

// GenerateRefreshToken creates a new refresh token (7d expiry) with userID.
func (s *JWTService) GenerateRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	return s.sign(Claims{
		RegisteredClaims: registeredClaims(userID, RefreshTokenExpiry),
		Type:             TokenTypeRefresh,
	})
}

func registeredClaims(userID string, expiry time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
}

func (s *JWTService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.keys[0])
}

// ValidateToken parses and validates a token against the keyring, returning
// the claims on the first key that verifies. An expired token reports
// ErrExpiredToken even when a retired key was needed to verify it; every
// other failure collapses to ErrInvalidToken.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	expired := false
	for _, key := range s.keys {
		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrInvalidToken
			}
			return key, nil
		}, jwt.WithLeeway(s.leeway))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				expired = true
			}
			continue
		}
		if claims, ok := token.Claims.(*Claims); ok && token.Valid {
			return claims, nil
		}
	}

	if expired {
		return nil, ErrExpiredToken
	}
	return nil, ErrInvalidToken
}
