// Package auth resolves handshake credentials into chat identities. Tokens
// are issued by an external auth service; this package only verifies them
// and falls back to synthesized guest identities.
package auth

import (
	"crypto/rand"
	"fmt"

	"chat-relay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type Service struct {
	secret []byte
}

func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

// IdentityFromToken validates an HMAC-signed token and extracts the identity
// claims placed there by the auth service.
func (s *Service) IdentityFromToken(tokenString string) (models.Identity, error) {
	if len(s.secret) == 0 {
		return models.Identity{}, fmt.Errorf("token verification is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, fmt.Errorf("invalid token")
	}

	userID, ok := (*claims)["user_id"].(string)
	if !ok || userID == "" {
		return models.Identity{}, fmt.Errorf("invalid user ID in token")
	}

	username, ok := (*claims)["username"].(string)
	if !ok || username == "" {
		return models.Identity{}, fmt.Errorf("invalid username in token")
	}

	return models.Identity{UserID: userID, Username: username}, nil
}

// GuestIdentity synthesizes an identity for a connection that arrived
// without usable credentials.
func (s *Service) GuestIdentity() (models.Identity, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to generate guest identity: %w", err)
	}
	return models.Identity{
		UserID:   "guest-" + suffix,
		Username: "Guest-" + suffix,
	}, nil
}

func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
