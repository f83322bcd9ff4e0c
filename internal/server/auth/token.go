// Package auth выпускает и проверяет JWT access токены (HS256).
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer значение iss во всех токенах
const Issuer = "gophdash"

// ErrInvalidToken токен не прошел проверку
var ErrInvalidToken = errors.New("invalid token")

// Claims JWT claims приложения
type Claims struct {
	jwt.RegisteredClaims
	// Documents ограничивает доступ списком документов; пустой список - все документы
	Documents []string `json:"docs,omitempty"`
}

// User возвращает subject токена
func (c *Claims) User() string {
	return c.Subject
}

// CanAccess проверяет доступ к документу
func (c *Claims) CanAccess(doc string) bool {
	if len(c.Documents) == 0 {
		return true
	}
	for _, d := range c.Documents {
		if d == doc {
			return true
		}
	}
	return false
}

// Service выпускает и валидирует токены
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// NewService создает сервис токенов
func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue создает новый access token для пользователя
func (s *Service) Issue(user string, documents ...string) (string, int64, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
		Documents: documents,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, int64(s.ttl.Seconds()), nil
}

// Validate парсит и проверяет токен
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims кладет claims в контекст
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom извлекает claims из контекста
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
