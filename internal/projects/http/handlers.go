package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/service"
)

const imageField = "imagen"

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list projects", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) create(c *gin.Context) {
	var req projectReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	upload, closeUpload, err := openUpload(c)
	if err != nil {
		h.fail(c, "read upload", err)
		return
	}
	defer closeUpload()

	p, err := h.svc.Create(c.Request.Context(), req.input(), upload)
	if err != nil {
		h.fail(c, "create project", err)
		return
	}

	h.logger(c).Info("create project", zap.String("principal", auth.Principal(c)), zap.Int64("id", p.ID))
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req projectReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	upload, closeUpload, err := openUpload(c)
	if err != nil {
		h.fail(c, "read upload", err)
		return
	}
	defer closeUpload()

	in := req.input()
	if in.Image == nil {
		in.Image = domain.StringPtr(c.PostForm(imageField))
	}

	p, err := h.svc.Update(c.Request.Context(), id, in, upload)
	if err != nil {
		h.fail(c, "update project", err)
		return
	}

	h.logger(c).Info("update project", zap.String("principal", auth.Principal(c)), zap.Int64("id", p.ID))
	c.JSON(http.StatusOK, p)
}

// delete answers 204 whether or not the row existed.
func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "delete project", err)
		return
	}

	h.logger(c).Info("delete project", zap.String("principal", auth.Principal(c)), zap.Int64("id", id), zap.Bool("existed", deleted))
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return 0, false
	}
	return id, true
}

// openUpload returns the optional imagen file part. Requests without a
// multipart body or without the part yield a nil upload.
func openUpload(c *gin.Context) (*service.Upload, func(), error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, fmt.Errorf("read %s: %w", imageField, err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("open %s: %w", imageField, err)
	}
	return &service.Upload{Filename: fh.Filename, Body: f}, closer(f), nil
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	default:
		h.logger(c).Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) logger(c *gin.Context) *zap.Logger {
	return middleware.Logger(c.Request.Context(), h.log)
}
