package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg gin.IRouter) {
	rg.POST("/login", h.Login)
}
