package middleware

import (
	"context"
	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RevocationChecker reports whether a token id was revoked by sign-out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// authenticate returns the claims of a valid, unrevoked bearer token. A failed
// revocation lookup counts as invalid.
func authenticate(c *gin.Context, cfg *config.Config, revoked RevocationChecker) (*util.Claims, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil, false
	}

	claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
	if err != nil {
		logger.Log.Debug("JWT parse failed", zap.Error(err))
		return nil, false
	}

	if revoked != nil && claims.ID != "" {
		isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Log.Error("Token revocation lookup failed", zap.Error(err))
			return nil, false
		}
		if isRevoked {
			return nil, false
		}
	}
	return claims, true
}

func AuthMiddleware(cfg *config.Config, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, cfg, revoked)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// TryAuthMiddleware attaches the claims when a valid token is present and lets
// anonymous requests through.
func TryAuthMiddleware(cfg *config.Config, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := authenticate(c, cfg, revoked); ok {
			c.Set(util.ContextUserKey, claims)
		}
		c.Next()
	}
}
