package utils

import (
	"os"
	"stayhub/src/types"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 24 * time.Hour

func GenerateJWT(email string, userID uint, isHost bool) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		Username: email,
		IsHost:   isHost,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userID)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}
