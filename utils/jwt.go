package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ResetScope is the only scope accepted by the reset endpoint.
const ResetScope = "devices:reset"

// Claims JWT 클레임
type Claims struct {
	Subject string `json:"sub_name"`
	Scope   string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateToken JWT 토큰 생성 (ttl이 0 이하이면 24시간)
func GenerateToken(secret []byte, subject string, ttl time.Duration) (string, int64, error) {
	if len(secret) == 0 {
		return "", 0, errors.New("empty signing secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	expirationTime := time.Now().Add(ttl)

	claims := &Claims{
		Subject: subject,
		Scope:   ResetScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", 0, err
	}

	return tokenString, expirationTime.Unix(), nil
}

// ValidateToken JWT 토큰 검증
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Scope != ResetScope {
		return nil, errors.New("token scope does not allow reset")
	}

	return claims, nil
}
