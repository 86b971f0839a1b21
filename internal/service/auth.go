package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims токена игрока: стабильный profile id нужен для реконнекта и лидерборда
type Claims struct {
	ProfileID string `json:"pid"`
	Username  string `json:"name"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService с пустым секретом генерирует случайный (токены живут до рестарта)
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	key := []byte(secret)
	if len(key) == 0 {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		key = []byte(hex.EncodeToString(buf))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: key, ttl: ttl, now: time.Now}
}

// IssueGuest выдает токен новому гостевому профилю
func (s *TokenService) IssueGuest(username string) (string, Claims, error) {
	return s.Issue(uuid.NewString(), username)
}

func (s *TokenService) Issue(profileID, username string) (string, Claims, error) {
	username = strings.TrimSpace(username)
	if profileID == "" {
		return "", Claims{}, fmt.Errorf("issue token: empty profile id")
	}
	now := s.now()
	claims := Claims{
		ProfileID: profileID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return token, claims, nil
}

// Parse проверяет подпись и срок токена
func (s *TokenService) Parse(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ProfileID == "" {
		return Claims{}, fmt.Errorf("%w: missing profile id", ErrInvalidToken)
	}
	return claims, nil
}
