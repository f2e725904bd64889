package http

import (
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/service"
)

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc *service.ProjectService
	log *zap.Logger
}

func New(svc *service.ProjectService, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// projectReq is bound from multipart, urlencoded or JSON bodies. In form
// bodies imagen may be a file part, so the text form of it is read
// separately by the update handler. It is only honoured on update.
type projectReq struct {
	Name        string `form:"nombre" json:"nombre"`
	Description string `form:"descripcion" json:"descripcion"`
	Link        string `form:"enlace" json:"enlace"`
	Image       string `form:"-" json:"imagen"`
}

func (r projectReq) input() domain.ProjectInput {
	return domain.ProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Link:        domain.StringPtr(r.Link),
		Image:       domain.StringPtr(r.Image),
	}
}
