package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parkent-market/internal/domain"
	"parkent-market/internal/repository"
	"parkent-market/internal/service"
)

const authClaimsKey = "auth_claims"

// AdminOnlyMiddleware valida el bearer token y exige rol admin.
func AdminOnlyMiddleware(jwtSvc *service.JWTService, roles repository.RoleRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil || roles == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		role, err := roles.GetRole(c.Request.Context(), claims.AccountID)
		if err != nil || role != domain.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
