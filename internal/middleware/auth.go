package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"go.uber.org/zap"
)

// AuthMiddleware extracts JWT claims from the request.
// The token is validated at the gateway; the service only reads claims.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Não autenticado"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Cabeçalho de autorização inválido"})
			c.Abort()
			return
		}

		claims, err := extractClaims(parts[1])
		if err != nil {
			observability.Logger().Error("failed to extract claims from token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Token inválido"})
			c.Abort()
			return
		}

		if claims.Sub == "" {
			c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Não autenticado"})
			c.Abort()
			return
		}

		// Store claims in context for later use
		c.Set("claims", claims)
		c.Next()
	}
}

// extractClaims decodes the claims part of the JWT without verifying the
// signature, which already happened at the gateway
func extractClaims(token string) (*models.JWTClaims, error) {
	parser := jwt.NewParser()

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims := &models.JWTClaims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Sub = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if username, ok := mapClaims["preferred_username"].(string); ok {
		claims.PreferredUsername = username
	}

	return claims, nil
}

// GetClaims returns the JWT claims stored in the Gin context
func GetClaims(c *gin.Context) (*models.JWTClaims, error) {
	claims, exists := c.Get("claims")
	if !exists {
		return nil, fmt.Errorf("claims not found")
	}

	jwtClaims, ok := claims.(*models.JWTClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	return jwtClaims, nil
}

// UserID extracts the authenticated user id from the Gin context
func UserID(c *gin.Context) (string, error) {
	claims, err := GetClaims(c)
	if err != nil {
		return "", err
	}
	return claims.Sub, nil
}
