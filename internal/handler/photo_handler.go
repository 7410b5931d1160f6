package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"homes-service/internal/middleware"
	"homes-service/internal/repository"
)

// PhotoStore keeps photo bytes outside the SQL database.
type PhotoStore interface {
	Upload(ctx context.Context, src io.Reader, filename string) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

type PhotoHandler struct {
	Photos PhotoStore
	Homes  *repository.HomeRepository
}

func (h *PhotoHandler) RegisterRoutes(rg *gin.RouterGroup, write gin.HandlerFunc) {
	rg.POST("/homes/:id/photo", write, h.UploadPhoto)
	rg.GET("/homes/:id/photo", h.DownloadPhoto)
}

func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	homeID := c.Param("id")
	ctx := c.Request.Context()

	exists, err := h.Homes.Exists(ctx, homeID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !exists {
		_ = c.Error(middleware.NotFound("home not found"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(middleware.BadRequest("file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(fmt.Errorf("PhotoHandler.UploadPhoto: open: %w", err))
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("home_%s_%s", homeID, fileHeader.Filename)
	photoID, err := h.Photos.Upload(ctx, file, filename)
	if err != nil {
		_ = c.Error(&middleware.HTTPError{Status: http.StatusInternalServerError, Message: "upload failed", Err: err})
		return
	}
	if err := h.Homes.UpdatePhotoFileID(ctx, homeID, photoID); err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_id": photoID})
}

func (h *PhotoHandler) DownloadPhoto(c *gin.Context) {
	ctx := c.Request.Context()

	home, err := h.Homes.GetByID(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}
	if home.PhotoFileID == "" {
		_ = c.Error(middleware.NotFound("photo not found for this home"))
		return
	}

	data, err := h.Photos.Download(ctx, home.PhotoFileID)
	if err != nil {
		_ = c.Error(notFoundOr(err, "photo not found for this home"))
		return
	}

	c.Header("Content-Disposition", "inline; filename=photo")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
