package http

import (
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/auth/domain"
)

// TokenIssuer exchanges a credential pair for a signed token.
type TokenIssuer interface {
	Issue(username, password string) (domain.Token, error)
}

type Handler struct {
	issuer TokenIssuer
	log    *zap.Logger
}

func New(issuer TokenIssuer, log *zap.Logger) *Handler {
	return &Handler{
		issuer: issuer,
		log:    log,
	}
}

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}
