package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"homes-service/internal/middleware"
	"homes-service/internal/model"
	"homes-service/internal/repository"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// HomeHandler serves the homes API.
type HomeHandler struct {
	Repo *repository.HomeRepository
}

// RegisterRoutes registers the homes routes. write guards create/update,
// admin guards delete.
func (h *HomeHandler) RegisterRoutes(rg *gin.RouterGroup, write, admin gin.HandlerFunc) {
	rg.GET("/homes", h.ListHomes)
	rg.GET("/homes/:id", h.GetHome)

	rg.POST("/homes", write, h.CreateHome)
	rg.PUT("/homes/:id", write, h.UpdateHome)
	rg.DELETE("/homes/:id", admin, h.DeleteHome)
}

// HomeRequest is the body accepted by create and update, as JSON or a form.
// Rating is not part of it: it is the average of the home's reviews.
type HomeRequest struct {
	Name        string   `json:"name" form:"name" binding:"required"`
	Location    string   `json:"location" form:"location" binding:"required"`
	Description *string  `json:"description" form:"description"`
	ImageURL    string   `json:"imageUrl" form:"imageUrl" binding:"omitempty,url"`
	Price       *float64 `json:"price" form:"price" binding:"required"`
}

func (req *HomeRequest) apply(h *model.Home) {
	h.Name = req.Name
	h.Location = req.Location
	h.Description = req.Description
	h.ImageURL = req.ImageURL
	h.Price = *req.Price
}

// GET /api/homes?location=...&min_price=...&max_price=...&limit=...&offset=...
func (h *HomeHandler) ListHomes(c *gin.Context) {
	f := repository.HomeFilter{
		Location: c.Query("location"),
		Limit:    defaultLimit,
	}
	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		f.MaxPrice = &v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		f.Limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		f.Offset = v
	}

	homes, err := h.Repo.List(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, homes)
}

// GET /api/homes/:id
func (h *HomeHandler) GetHome(c *gin.Context) {
	home, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}
	c.JSON(http.StatusOK, home)
}

// POST /api/homes
func (h *HomeHandler) CreateHome(c *gin.Context) {
	var req HomeRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(middleware.BadRequest("invalid payload", err))
		return
	}

	now := model.Timestamp(time.Now())
	home := &model.Home{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(home)
	home.ApplyDefaults()
	if err := home.Validate(); err != nil {
		_ = c.Error(middleware.BadRequest("invalid home", err))
		return
	}

	if err := h.Repo.Create(c.Request.Context(), home); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, home)
}

// PUT /api/homes/:id
func (h *HomeHandler) UpdateHome(c *gin.Context) {
	var req HomeRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(middleware.BadRequest("invalid payload", err))
		return
	}

	current, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}

	req.apply(current)
	current.ApplyDefaults()
	current.UpdatedAt = model.Timestamp(time.Now())
	if err := current.Validate(); err != nil {
		_ = c.Error(middleware.BadRequest("invalid home", err))
		return
	}

	if err := h.Repo.Update(c.Request.Context(), current); err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}
	c.JSON(http.StatusOK, current)
}

// DELETE /api/homes/:id
func (h *HomeHandler) DeleteHome(c *gin.Context) {
	if err := h.Repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// notFoundOr maps repository.ErrNotFound to a 404 and passes anything else through.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return middleware.NotFound(msg)
	}
	return err
}
