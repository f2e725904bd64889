package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reqid "github.com/GoSim-25-26J-441/portfolio-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/auth/domain"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// BearerAuth rejects requests without a valid bearer token. A missing
// Authorization header yields 403; any other failure yields 401.
func BearerAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := reqid.Logger(c.Request.Context(), log)
		header := c.GetHeader("Authorization")
		if header == "" {
			log.Debug("token not provided", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrMissingToken.Error()})
			return
		}

		principal, err := verifier.Verify(extractToken(header))
		if err != nil {
			if errors.Is(err, domain.ErrMissingToken) {
				// header present but carries no token
				err = domain.ErrInvalidToken
			}
			log.Info("token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidToken.Error()})
			return
		}

		c.Set(auth.CtxPrincipal, principal.Username)
		c.Next()
	}
}

// extractToken returns the token of a "Bearer <token>" header, or "" when
// the scheme is anything else.
func extractToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
