// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/app/services"
	"github.com/gofiber/fiber/v3"
)

// Locals keys set by Authenticate
const (
	TravellerEmailKey = "traveller_email"
	TravellerNameKey  = "traveller_name"
	TokenIDKey        = "token_id"
	TokenClaimsKey    = "token_claims"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code: code,
		},
	})
}

// bearerToken extracts the token from an Authorization header
func bearerToken(c fiber.Ctx) (string, string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", "Authorization header is required", "MISSING_AUTHORIZATION_HEADER"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT"
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "Access token is required", "MISSING_ACCESS_TOKEN"
	}
	return token, "", ""
}

// Authenticate is the middleware function that validates JWT tokens
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, message, code := bearerToken(c)
		if token == "" {
			return unauthorized(c, message, code)
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			default:
				return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
			}
		}

		setTraveller(c, claims)
		return c.Next()
	}
}

// OptionalAuth validates a bearer token when present but lets anonymous requests through
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, _, _ := bearerToken(c)
		if token == "" {
			return c.Next()
		}
		if claims, err := m.tokenService.ValidateToken(token); err == nil {
			setTraveller(c, claims)
		}
		return c.Next()
	}
}

func setTraveller(c fiber.Ctx, claims *services.TokenClaims) {
	c.Locals(TravellerEmailKey, claims.Email)
	c.Locals(TravellerNameKey, claims.Name)
	c.Locals(TokenIDKey, claims.TokenID)
	c.Locals(TokenClaimsKey, claims)

	if requestID := c.Get("X-Request-ID"); requestID != "" {
		c.Locals("request_id", requestID)
	}
}

// GetTravellerFromContext extracts the authenticated traveller's email and name
func GetTravellerFromContext(c fiber.Ctx) (email, name string, ok bool) {
	email, ok = c.Locals(TravellerEmailKey).(string)
	if !ok || email == "" {
		return "", "", false
	}
	name, _ = c.Locals(TravellerNameKey).(string)
	return email, name, true
}
