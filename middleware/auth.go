package middleware

import (
	"civicpulse/models"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// CitizenIDKey is the request-context key carrying the authenticated citizen id.
const CitizenIDKey contextKey = "citizen_id"

// OfficerIDKey is the request-context key carrying the authenticated officer id.
const OfficerIDKey contextKey = "officer_id"

// AuthMiddleware validates JWT tokens and scopes them per actor type.
type AuthMiddleware struct {
	jwtSecret []byte
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: []byte(jwtSecret)}
}

// RequireCitizen validates a citizen token and sets the citizen id in
// the request context. Officer tokens are rejected.
func (m *AuthMiddleware) RequireCitizen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.parseClaims(w, r)
		if !ok {
			return
		}
		if at, _ := claims["actor_type"].(string); at != "citizen" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Citizen token required for this endpoint.")
			return
		}
		citizenIDFloat, ok := claims["citizen_id"].(float64)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token: citizen_id not found.")
			return
		}

		ctx := context.WithValue(r.Context(), CitizenIDKey, int64(citizenIDFloat))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOfficer validates an officer token and sets the officer id in
// the request context. Citizen tokens are rejected.
func (m *AuthMiddleware) RequireOfficer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.parseClaims(w, r)
		if !ok {
			return
		}
		if at, _ := claims["actor_type"].(string); at != "officer" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Officer token required for this endpoint.")
			return
		}
		officerIDFloat, ok := claims["officer_id"].(float64)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token: officer_id not found.")
			return
		}

		ctx := context.WithValue(r.Context(), OfficerIDKey, int64(officerIDFloat))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseClaims extracts and validates the bearer token; on failure it
// writes the error response and returns ok=false.
func (m *AuthMiddleware) parseClaims(w http.ResponseWriter, r *http.Request) (jwt.MapClaims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authorization header required.")
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization format. Expected: Bearer <token>")
		return nil, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token.")
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token claims.")
		return nil, false
	}
	return claims, true
}

// CitizenIDFromContext returns the authenticated citizen id, if any.
func CitizenIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(CitizenIDKey).(int64)
	return id, ok
}

// OfficerIDFromContext returns the authenticated officer id, if any.
func OfficerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(OfficerIDKey).(int64)
	return id, ok
}

// Helper function for error responses
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	})
}
