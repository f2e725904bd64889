package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxPrincipal = "principal"
)

// Principal returns the username stored by the bearer middleware.
func Principal(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxPrincipal))
}
