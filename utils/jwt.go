package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateCitizenJWT generates a JWT token for an authenticated citizen
func GenerateCitizenJWT(citizenID int64, secret []byte, expiresInHours int) (string, error) {
	expiresAt := time.Now().Add(time.Duration(expiresInHours) * time.Hour)

	claims := jwt.MapClaims{
		"citizen_id": citizenID,
		"actor_type": "citizen",
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateOfficerJWT generates a JWT token scoped to an officer; citizen
// endpoints must reject it.
func GenerateOfficerJWT(officerID int64, secret []byte, expiresInHours int) (string, error) {
	expiresAt := time.Now().Add(time.Duration(expiresInHours) * time.Hour)

	claims := jwt.MapClaims{
		"officer_id": officerID,
		"actor_type": "officer",
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
