package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service issues and parses the portal's bearer tokens.
type Service struct {
	hmac []byte
	ttl  time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{hmac: []byte(secret), ttl: ttl}
}

type Claims struct {
	Role      string `json:"role"` // "tutor" | "student" | "admin"
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	StudentID string `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

func (s *Service) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:      id.Role,
		Name:      id.Name,
		Email:     id.Email,
		StudentID: id.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    "examstack",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	})
	if err != nil {
		return Identity{}, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	return Identity{
		UserID:    c.Subject,
		Role:      c.Role,
		Name:      c.Name,
		Email:     c.Email,
		StudentID: c.StudentID,
	}, nil
}
