package http

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/assets"
)

// AssetHandler serves stored images read-only. Only names the store
// resolves are reachable, so in-progress temp files stay hidden.
type AssetHandler struct {
	store *assets.Store
	log   *zap.Logger
}

func NewAssetHandler(store *assets.Store, log *zap.Logger) *AssetHandler {
	return &AssetHandler{store: store, log: log}
}

func (h *AssetHandler) Serve(c *gin.Context) {
	ref := h.store.URLPrefix() + "/" + c.Param("name")

	f, err := h.store.Open(ref)
	if err != nil {
		if errors.Is(err, assets.ErrInvalidRef) || errors.Is(err, fs.ErrNotExist) {
			c.Status(http.StatusNotFound)
			return
		}
		h.log.Error("open asset", zap.String("ref", ref), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		c.Status(http.StatusNotFound)
		return
	}

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func (h *AssetHandler) RegisterRoutes(r gin.IRouter) {
	path := h.store.URLPrefix() + "/:name"
	r.GET(path, h.Serve)
	r.HEAD(path, h.Serve)
}

