package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenExpired is returned when a token is well-formed but past its expiry
var ErrTokenExpired = errors.New("token expired")

// Manager handles JWT operations
type Manager struct {
	accessSecret string
	accessExpiry time.Duration
	issuer       string
}

// NewManager creates a new JWT manager
func NewManager(accessSecret string, accessExpiry time.Duration, issuer string) *Manager {
	if issuer == "" {
		issuer = "meeting-taskflow"
	}
	return &Manager{
		accessSecret: accessSecret,
		accessExpiry: accessExpiry,
		issuer:       issuer,
	}
}

// GenerateAccessToken generates an access token
func (m *Manager) GenerateAccessToken(userID uuid.UUID, username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.accessSecret))
}

// ValidateAccessToken validates and parses access token
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.accessSecret), nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// GetAccessExpiry returns access token expiry duration
func (m *Manager) GetAccessExpiry() time.Duration {
	return m.accessExpiry
}

// HashToken returns the SHA-256 hex digest of the provided token string.
// Revocation entries are keyed by this digest, never by the raw token.
func (m *Manager) HashToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token is empty")
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:]), nil
}
